package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedDirectory(t *testing.T) {
	tmp := t.TempDir()
	want := filepath.Join(tmp, "results", "objects")

	got, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")

	first, err := EnsureDir(dir)
	require.NoError(t, err)

	second, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o660))

	_, err := EnsureDir(path)
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestWriteFileNoReplace_CreatesOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0123.tmp")

	created, err := WriteFileNoReplace(path, []byte("first"), 0o640)
	require.NoError(t, err)
	require.True(t, created)

	created, err = WriteFileNoReplace(path, []byte("second"), 0o640)
	require.NoError(t, err)
	require.False(t, created, "existing file must not be replaced")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must be cleaned up")
}

func TestWriteFileNoReplace_MissingDir(t *testing.T) {
	_, err := WriteFileNoReplace(filepath.Join(t.TempDir(), "nope", "x"), []byte("x"), 0o640)
	require.Error(t, err)
}

package coordinator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sourcesync/internal/controller/store"
	"github.com/dmitrijs2005/sourcesync/internal/logging"
	"github.com/dmitrijs2005/sourcesync/internal/storagekey"
)

func TestVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.coordinator(f.copier, f.copier)

	_, err := c.Sync(ctx, f.scenario(), f.roots)
	require.NoError(t, err)

	rep, err := c.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, rep.OK(), rep.Problems)
	assert.Equal(t, 1, rep.Checked)

	path := filepath.Join(f.store.Root(), storagekey.ArtifactName(storagekey.Of("a")))
	require.NoError(t, os.Chmod(path, 0o600))
	require.NoError(t, os.WriteFile(path, []byte("tampered"), 0o600))

	rep, err = c.Verify(ctx)
	require.NoError(t, err)
	assert.False(t, rep.OK())
	require.Len(t, rep.Problems, 1)
	assert.Contains(t, rep.Problems[0], "digest")

	require.NoError(t, os.Remove(path))
	rep, err = c.Verify(ctx)
	require.NoError(t, err)
	require.Len(t, rep.Problems, 1)
	assert.Contains(t, rep.Problems[0], "missing from store")
}

func TestVerify_RequiresIndex(t *testing.T) {
	c := New(store.NewDirStore(t.TempDir()), nil, nil, nil, logging.Nop())
	_, err := c.Verify(context.Background())
	require.ErrorIs(t, err, ErrNoIndex)
}

func TestVerify_IndexError(t *testing.T) {
	c := New(store.NewDirStore(t.TempDir()), nil, nil, brokenIndex{}, logging.Nop())
	_, err := c.Verify(context.Background())
	require.ErrorIs(t, err, errIndexDown)
}

package archive

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sourcesync/internal/storagekey"
)

func TestPayload_RoundTrip(t *testing.T) {
	key := storagekey.Of("src/a.c")
	content := []byte(strings.Repeat("int main() { return 0; }\n", 200))

	payload, err := Payload(key, bytes.NewReader(content))
	require.NoError(t, err)
	assert.Less(t, len(payload), len(content), "payload should be compressed")

	got, err := Content(key, payload)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestContent_RejectsWrongKey(t *testing.T) {
	payload, err := Payload(storagekey.Of("a"), strings.NewReader("x"))
	require.NoError(t, err)

	_, err = Content(storagekey.Of("b"), payload)
	require.Error(t, err)

	_, err = Content(storagekey.Of("a"), []byte("not a zip"))
	require.Error(t, err)
}

func TestWriter_WalkYieldsEveryEntry(t *testing.T) {
	files := map[string]string{
		"a.c": "alpha",
		"b.c": "",
		"c.c": strings.Repeat("gamma", 1000),
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for name, body := range files {
		require.NoError(t, w.Add(storagekey.Of(name), strings.NewReader(body)))
	}
	assert.Equal(t, 3, w.Len())
	require.NoError(t, w.Close())

	got := map[string]string{}
	err := Walk(buf.Bytes(), func(key string, payload []byte) error {
		content, err := Content(key, payload)
		if err != nil {
			return err
		}
		got[key] = string(content)
		return nil
	})
	require.NoError(t, err)

	want := map[string]string{}
	for name, body := range files {
		want[storagekey.Of(name)] = body
	}
	assert.Equal(t, want, got)
}

func TestWriter_EntriesAreStoredUnderTransitNames(t *testing.T) {
	key := storagekey.Of("a.c")
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Add(key, strings.NewReader("alpha")))
	require.NoError(t, w.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, key+".tmp.zip", zr.File[0].Name)
	assert.Equal(t, zip.Store, zr.File[0].Method)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestWriter_FailedAddLeavesArchiveUsable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.Error(t, w.Add(storagekey.Of("bad.c"), failingReader{}))
	require.NoError(t, w.Add(storagekey.Of("good.c"), strings.NewReader("ok")))
	require.NoError(t, w.Close())
	assert.Equal(t, 1, w.Len())

	var keys []string
	require.NoError(t, Walk(buf.Bytes(), func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	}))
	assert.Equal(t, []string{storagekey.Of("good.c")}, keys)
}

func TestWalk_RejectsForeignEntryNames(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("../../etc/passwd")
	require.NoError(t, err)
	_, err = io.WriteString(fw, "x")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	err = Walk(buf.Bytes(), func(string, []byte) error { return nil })
	require.Error(t, err)
}

func TestWalk_EmptyAndCallbackError(t *testing.T) {
	require.NoError(t, Walk(nil, func(string, []byte) error { return errors.New("unreachable") }))

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Add(storagekey.Of("a"), strings.NewReader("a")))
	require.NoError(t, w.Close())

	stop := errors.New("stop")
	err := Walk(buf.Bytes(), func(string, []byte) error { return stop })
	require.ErrorIs(t, err, stop)
}

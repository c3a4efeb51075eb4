package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sourcesync/internal/common"
	"github.com/dmitrijs2005/sourcesync/internal/storagekey"
)

func TestDirStore_CreatedLazily(t *testing.T) {
	root := filepath.Join(t.TempDir(), "result", "sources")
	s := NewDirStore(root)
	ctx := context.Background()
	key := storagekey.Of("a.c")

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = os.Stat(root)
	require.True(t, os.IsNotExist(err), "lookups must not create the directory")

	created, err := s.Put(ctx, key, []byte("payload"))
	require.NoError(t, err)
	assert.True(t, created)

	_, err = os.Stat(filepath.Join(root, key+".tmp"))
	require.NoError(t, err)

	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDirStore_NeverOverwrites(t *testing.T) {
	s := NewDirStore(t.TempDir())
	ctx := context.Background()
	key := storagekey.Of("a.c")

	_, err := s.Put(ctx, key, []byte("first"))
	require.NoError(t, err)

	created, err := s.Put(ctx, key, []byte("second"))
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
}

func TestDirStore_ConcurrentWritersDoNotCorrupt(t *testing.T) {
	s := NewDirStore(t.TempDir())
	ctx := context.Background()
	key := storagekey.Of("shared.c")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := s.Put(ctx, key, []byte("same content"))
			assert.NoError(t, err)
			if created {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "same content", string(got))
}

func TestDirStore_GetMissing(t *testing.T) {
	s := NewDirStore(t.TempDir())
	_, err := s.Get(context.Background(), storagekey.Of("nope"))
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDirStore_RejectsInvalidKeys(t *testing.T) {
	s := NewDirStore(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"", "../../etc/passwd", "ABC"} {
		_, err := s.Exists(ctx, key)
		assert.Error(t, err, key)
		_, err = s.Put(ctx, key, nil)
		assert.Error(t, err, key)
		_, err = s.Get(ctx, key)
		assert.Error(t, err, key)
	}
}

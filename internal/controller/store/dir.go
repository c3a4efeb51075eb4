package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/sourcesync/internal/common"
	"github.com/dmitrijs2005/sourcesync/internal/filex"
	"github.com/dmitrijs2005/sourcesync/internal/storagekey"
)

// DirStore keeps artifacts as "<key>.tmp" files in one directory. The
// directory is created on first write.
type DirStore struct {
	root string
}

func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

// Root is the directory artifacts live in.
func (s *DirStore) Root() string { return s.root }

func (s *DirStore) path(key string) (string, error) {
	if !storagekey.Valid(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, storagekey.ArtifactName(key)), nil
}

func (s *DirStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (s *DirStore) Put(_ context.Context, key string, payload []byte) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	if _, err := filex.EnsureDir(s.root); err != nil {
		return false, err
	}
	return filex.WriteFileNoReplace(p, payload, 0o640)
}

func (s *DirStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, common.ErrorNotFound)
	}
	return b, err
}

package store

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore remembers keys known to exist. Only positive answers are
// cached: an artifact never disappears once stored, but a missing one may
// be written by someone else at any time.
type CachedStore struct {
	inner Store
	known *lru.Cache[string, struct{}]
}

func NewCachedStore(inner Store, size int) (*CachedStore, error) {
	c, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("lru: %w", err)
	}
	return &CachedStore{inner: inner, known: c}, nil
}

func (s *CachedStore) Exists(ctx context.Context, key string) (bool, error) {
	if s.known.Contains(key) {
		return true, nil
	}
	ok, err := s.inner.Exists(ctx, key)
	if err == nil && ok {
		s.known.Add(key, struct{}{})
	}
	return ok, err
}

func (s *CachedStore) Put(ctx context.Context, key string, payload []byte) (bool, error) {
	if s.known.Contains(key) {
		return false, nil
	}
	created, err := s.inner.Put(ctx, key, payload)
	if err == nil {
		s.known.Add(key, struct{}{})
	}
	return created, err
}

func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, key)
}

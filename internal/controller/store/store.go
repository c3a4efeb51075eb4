// Package store keeps artifacts on the controller, keyed by storage key.
//
// Artifacts are immutable: a key is written at most once and Put never
// replaces an existing artifact. That makes every backend safe for
// concurrent writers without locking; the losing writer's Put is simply a
// no-op.
package store

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sourcesync/internal/archive"
	"github.com/dmitrijs2005/sourcesync/internal/common"
)

// Store is a flat, put-if-absent artifact store.
type Store interface {
	// Exists reports whether an artifact is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
	// Put stores payload under key unless the key is already taken.
	// created is false when an artifact was already present.
	Put(ctx context.Context, key string, payload []byte) (created bool, err error)
	// Get returns the stored payload or common.ErrorNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
}

// Stored describes one artifact written by Unpack.
type Stored struct {
	Key     string
	Payload []byte
	Created bool
}

// Unpack writes every entry of a batch archive into s. Each payload is
// checked to be a valid artifact for its key before it is stored. Entries
// stored before an error stay valid.
func Unpack(ctx context.Context, s Store, b []byte) ([]Stored, error) {
	var out []Stored
	err := archive.Walk(b, func(key string, payload []byte) error {
		if err := ctx.Err(); err != nil {
			return common.Interrupted(err)
		}
		if _, err := archive.Content(key, payload); err != nil {
			return err
		}
		created, err := s.Put(ctx, key, payload)
		if err != nil {
			return fmt.Errorf("store %s: %w", key, err)
		}
		out = append(out, Stored{Key: key, Payload: payload, Created: created})
		return nil
	})
	return out, err
}

// ReadContent returns the original file bytes stored under key.
func ReadContent(ctx context.Context, s Store, key string) ([]byte, error) {
	payload, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return archive.Content(key, payload)
}

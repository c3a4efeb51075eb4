// Package common defines shared constants and sentinel errors used across
// agent and controller layers of sourcesync. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Storage-level errors.
	ErrorNotFound   = errors.New("not found")
	ErrKeyCollision = errors.New("storage key collision")

	// Transport-level errors.
	ErrChannelUnavailable = errors.New("remote channel unavailable")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")

	// ErrInterrupted marks cooperative cancellation. It must never be
	// treated as an ordinary I/O error.
	ErrInterrupted = errors.New("interrupted")
)

// Interrupted wraps cause so that errors.Is(err, ErrInterrupted) holds while
// the original cause (usually context.Canceled) stays reachable.
func Interrupted(cause error) error {
	if cause == nil || errors.Is(cause, ErrInterrupted) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrInterrupted, cause)
}

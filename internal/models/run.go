package models

import "time"

// Artifact is the index record of one stored file.
type Artifact struct {
	StorageKey  string
	LogicalName string
	Size        int64
	Digest      string
	StoredAt    time.Time
}

// SyncMode tells which path produced a run's outcome.
type SyncMode string

const (
	ModeBatch    SyncMode = "batch"
	ModeFallback SyncMode = "fallback"
	// ModeNone is used when the skip-set left nothing to transfer.
	ModeNone SyncMode = "none"
)

// SyncRun is the history record of one coordinator invocation.
type SyncRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Mode       SyncMode
	Candidates int
	Outcome    Outcome
}

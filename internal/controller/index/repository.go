package index

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/blake3"

	"github.com/dmitrijs2005/sourcesync/internal/common"
	"github.com/dmitrijs2005/sourcesync/internal/dbx"
	"github.com/dmitrijs2005/sourcesync/internal/models"
)

const (
	insertArtifact = `INSERT INTO artifacts (storage_key, logical_name, size, digest, stored_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (storage_key) DO NOTHING`

	selectLogicalName = `SELECT logical_name FROM artifacts WHERE storage_key = ?`

	selectArtifacts = `SELECT storage_key, logical_name, size, digest, stored_at
		FROM artifacts ORDER BY stored_at, storage_key`

	insertRun = `INSERT INTO sync_runs (id, started_at, finished_at, mode, candidates,
			skipped, copied, not_found, not_in_workspace, errored)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`

	selectRuns = `SELECT id, started_at, finished_at, mode, candidates,
			skipped, copied, not_found, not_in_workspace, errored
		FROM sync_runs ORDER BY started_at DESC, id LIMIT ?`
)

// Repository runs index queries against any DBTX, so it works on the pool
// and inside a transaction alike.
type Repository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewRepository(db dbx.DBTX, dialect dbx.Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

// WithDB returns a repository bound to db (typically a transaction).
func (r *Repository) WithDB(db dbx.DBTX) *Repository {
	return &Repository{db: db, dialect: r.dialect}
}

// Digest is the hex BLAKE3-256 digest recorded for a stored payload.
func Digest(payload []byte) string {
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// NewArtifact describes payload stored under key for logicalName.
func NewArtifact(key, logicalName string, payload []byte, storedAt time.Time) models.Artifact {
	return models.Artifact{
		StorageKey:  key,
		LogicalName: logicalName,
		Size:        int64(len(payload)),
		Digest:      Digest(payload),
		StoredAt:    storedAt,
	}
}

// RecordArtifact inserts a, leaving an existing row for the key untouched.
// It reports whether a row was inserted.
func (r *Repository) RecordArtifact(ctx context.Context, a models.Artifact) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(insertArtifact),
		a.StorageKey, a.LogicalName, a.Size, a.Digest, a.StoredAt.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("failed to insert artifact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// LogicalName returns the name recorded for key or common.ErrorNotFound.
func (r *Repository) LogicalName(ctx context.Context, key string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(selectLogicalName), key).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrorNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get artifact: %w", err)
	}
	return name, nil
}

// Artifacts lists every indexed artifact, oldest first.
func (r *Repository) Artifacts(ctx context.Context) ([]models.Artifact, error) {
	rows, err := r.db.QueryContext(ctx, selectArtifacts)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var out []models.Artifact
	for rows.Next() {
		var (
			a        models.Artifact
			storedAt int64
		)
		if err := rows.Scan(&a.StorageKey, &a.LogicalName, &a.Size, &a.Digest, &storedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		a.StoredAt = time.UnixMilli(storedAt).UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return out, nil
}

// RecordRun stores the history row of one sync.
func (r *Repository) RecordRun(ctx context.Context, run models.SyncRun) error {
	o := run.Outcome
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(insertRun),
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), string(run.Mode), run.Candidates,
		o.Skipped, o.Copied, o.NotFound, o.NotInWorkspace, o.Errored)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(selectRuns), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var out []models.SyncRun
	for rows.Next() {
		var (
			run               models.SyncRun
			mode              string
			started, finished int64
		)
		o := &run.Outcome
		if err := rows.Scan(&run.ID, &started, &finished, &mode, &run.Candidates,
			&o.Skipped, &o.Copied, &o.NotFound, &o.NotInWorkspace, &o.Errored); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		run.Mode = models.SyncMode(mode)
		run.StartedAt = time.UnixMilli(started).UTC()
		run.FinishedAt = time.UnixMilli(finished).UTC()
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return out, nil
}

// RecordArtifacts inserts all artifacts in one transaction and returns how
// many rows were new.
func RecordArtifacts(ctx context.Context, db *sql.DB, repo *Repository, artifacts []models.Artifact) (int, error) {
	return dbx.InTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) (int, error) {
		txRepo := repo.WithDB(tx)
		inserted := 0
		for _, a := range artifacts {
			ok, err := txRepo.RecordArtifact(ctx, a)
			if err != nil {
				return 0, err
			}
			if ok {
				inserted++
			}
		}
		return inserted, nil
	})
}

// Package coordinator runs a sync on the controller: it drops candidates
// that are already stored, asks the agent for everything else in one batch
// and falls back to copying file by file when the batch cannot be done.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/sourcesync/internal/archive"
	"github.com/dmitrijs2005/sourcesync/internal/common"
	"github.com/dmitrijs2005/sourcesync/internal/controller/index"
	"github.com/dmitrijs2005/sourcesync/internal/controller/store"
	"github.com/dmitrijs2005/sourcesync/internal/logging"
	"github.com/dmitrijs2005/sourcesync/internal/models"
	"github.com/dmitrijs2005/sourcesync/internal/storagekey"
)

// BatchCopier copies a whole candidate set in one round trip.
type BatchCopier interface {
	CopyBatch(ctx context.Context, files []models.FileReference, roots models.AuthorizedRoots) (models.BatchResult, error)
}

// FileCopier copies a single candidate.
type FileCopier interface {
	CopyFile(ctx context.Context, ref models.FileReference, roots models.AuthorizedRoots) (models.FileResult, error)
}

// Index is the artifact and run history the coordinator keeps up to date.
type Index interface {
	LogicalName(ctx context.Context, key string) (string, error)
	RecordArtifacts(ctx context.Context, artifacts []models.Artifact) (int, error)
	RecordRun(ctx context.Context, run models.SyncRun) error
	Artifacts(ctx context.Context) ([]models.Artifact, error)
}

type Coordinator struct {
	store  store.Store
	batch  BatchCopier
	single FileCopier
	index  Index
	logger logging.Logger
	now    func() time.Time
}

// New returns a Coordinator. batch may be nil when there is no channel to
// an agent; every sync then takes the per-file path through single. idx
// may be nil to run without history and collision checks.
func New(s store.Store, batch BatchCopier, single FileCopier, idx Index, l logging.Logger) *Coordinator {
	return &Coordinator{
		store:  s,
		batch:  batch,
		single: single,
		index:  idx,
		logger: l.With("module", "coordinator"),
		now:    time.Now,
	}
}

// Sync copies every candidate not yet in the store and returns the outcome.
// Per-file problems are part of the outcome; the only error returned is
// common.ErrInterrupted, together with the outcome accumulated so far.
func (c *Coordinator) Sync(ctx context.Context, candidates []models.FileReference, roots models.AuthorizedRoots) (models.Outcome, error) {
	run := models.SyncRun{
		ID:         uuid.NewString(),
		StartedAt:  c.now(),
		Mode:       models.ModeNone,
		Candidates: len(candidates),
	}
	l := c.logger.With("sync_id", run.ID)

	var tally models.Tally
	work, err := c.skipSet(ctx, l, candidates, &tally)
	if err != nil {
		return tally.Outcome(), err
	}

	if len(work) > 0 && c.batch != nil {
		out, artifacts, err := c.runBatch(ctx, l, work, roots)
		switch {
		case err == nil:
			run.Mode = models.ModeBatch
			tally.Merge(out)
			c.recordArtifacts(ctx, l, artifacts)
		case errors.Is(err, common.ErrInterrupted):
			return tally.Outcome(), err
		default:
			l.Warn(ctx, "batch copy failed, copying file by file", "error", err)
		}
	}

	if len(work) > 0 && run.Mode == models.ModeNone {
		run.Mode = models.ModeFallback
		artifacts, err := c.runFallback(ctx, l, work, roots, &tally)
		c.recordArtifacts(ctx, l, artifacts)
		if err != nil {
			return tally.Outcome(), err
		}
	}

	run.Outcome = tally.Outcome()
	run.FinishedAt = c.now()
	c.recordRun(ctx, l, run)

	l.Info(ctx, "sync finished",
		"mode", run.Mode, "candidates", len(candidates), "transferred", len(work),
		"skipped", run.Outcome.Skipped, "summary", run.Outcome.Summary(),
		"diagnostics", len(run.Outcome.Diagnostics))
	return run.Outcome, nil
}

// skipSet returns the candidates that still need a transfer. Candidates
// without a path are dropped silently; repeated logical names and names
// already stored are counted as skipped.
func (c *Coordinator) skipSet(ctx context.Context, l logging.Logger, candidates []models.FileReference, tally *models.Tally) ([]models.FileReference, error) {
	seen := make(map[string]struct{}, len(candidates))
	work := make([]models.FileReference, 0, len(candidates))

	for _, ref := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, common.Interrupted(err)
		}
		if ref.AbsolutePath == "" {
			l.Debug(ctx, "candidate without path ignored", "logical_name", ref.LogicalName)
			continue
		}
		if _, dup := seen[ref.LogicalName]; dup {
			tally.Skipped()
			continue
		}
		seen[ref.LogicalName] = struct{}{}

		key := storagekey.Of(ref.LogicalName)
		stored, err := c.store.Exists(ctx, key)
		if err != nil {
			l.Warn(ctx, "existence check failed, treating as absent", "logical_name", ref.LogicalName, "error", err)
			stored = false
		}
		if !stored {
			work = append(work, ref)
			continue
		}

		if owner, collides := c.collision(ctx, l, key, ref.LogicalName); collides {
			tally.Errorf("%s: %v: key %s is taken by %s", ref.LogicalName, common.ErrKeyCollision, key, owner)
			l.Warn(ctx, "storage key collision", "logical_name", ref.LogicalName, "owner", owner, "key", key)
			continue
		}
		tally.Skipped()
	}
	return work, nil
}

// collision reports whether the index knows key under another logical name.
func (c *Coordinator) collision(ctx context.Context, l logging.Logger, key, logicalName string) (string, bool) {
	if c.index == nil {
		return "", false
	}
	owner, err := c.index.LogicalName(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			l.Warn(ctx, "index lookup failed", "key", key, "error", err)
		}
		return "", false
	}
	return owner, owner != logicalName
}

// runBatch makes the single agent round trip and unpacks its archive. Any
// error means the batch result must be discarded; the artifacts already
// unpacked stay valid.
func (c *Coordinator) runBatch(ctx context.Context, l logging.Logger, work []models.FileReference, roots models.AuthorizedRoots) (models.Outcome, []models.Artifact, error) {
	res, err := c.batch.CopyBatch(ctx, work, roots)
	if err != nil {
		return models.Outcome{}, nil, err
	}
	if len(res.Archive) == 0 {
		if res.Outcome.Copied > 0 {
			return models.Outcome{}, nil, fmt.Errorf("agent reported %d copied files without an archive", res.Outcome.Copied)
		}
		return res.Outcome, nil, nil
	}

	stored, err := store.Unpack(ctx, c.store, res.Archive)
	if err != nil {
		return models.Outcome{}, nil, fmt.Errorf("unpack batch archive: %w", err)
	}

	names := make(map[string]string, len(work))
	for _, ref := range work {
		names[storagekey.Of(ref.LogicalName)] = ref.LogicalName
	}

	now := c.now()
	artifacts := make([]models.Artifact, 0, len(stored))
	for _, s := range stored {
		name, ok := names[s.Key]
		if !ok {
			l.Warn(ctx, "archive entry not requested", "key", s.Key)
			continue
		}
		payload, err := c.winner(ctx, s.Key, s.Payload, s.Created)
		if err != nil {
			l.Warn(ctx, "stored artifact not readable", "key", s.Key, "error", err)
			continue
		}
		artifacts = append(artifacts, index.NewArtifact(s.Key, name, payload, now))
	}
	if len(artifacts) != res.Outcome.Copied {
		l.Warn(ctx, "archive does not match reported copies", "entries", len(artifacts), "copied", res.Outcome.Copied)
	}

	l.Debug(ctx, "batch unpacked", "entries", len(stored), "archive_bytes", len(res.Archive))
	return res.Outcome, artifacts, nil
}

// runFallback copies the candidates one by one, in order. Only interruption
// stops the loop.
func (c *Coordinator) runFallback(ctx context.Context, l logging.Logger, work []models.FileReference, roots models.AuthorizedRoots, tally *models.Tally) ([]models.Artifact, error) {
	var artifacts []models.Artifact

	for _, ref := range work {
		if err := ctx.Err(); err != nil {
			return artifacts, common.Interrupted(err)
		}

		res, err := c.single.CopyFile(ctx, ref, roots)
		if err != nil {
			if errors.Is(err, common.ErrInterrupted) {
				return artifacts, err
			}
			tally.Errorf("%s: %v", ref.LogicalName, err)
			l.Warn(ctx, "file copy failed", "logical_name", ref.LogicalName, "error", err)
			continue
		}

		if res.Status == models.StatusCopied {
			key := storagekey.Of(ref.LogicalName)
			payload, err := c.put(ctx, key, res.Payload)
			if err != nil {
				tally.Errorf("%s: %v", ref.LogicalName, err)
				l.Warn(ctx, "file not stored", "logical_name", ref.LogicalName, "error", err)
				continue
			}
			artifacts = append(artifacts, index.NewArtifact(key, ref.LogicalName, payload, c.now()))
		}
		tally.Record(res)
	}
	return artifacts, nil
}

// put stores payload and returns the bytes that now live under key.
func (c *Coordinator) put(ctx context.Context, key string, payload []byte) ([]byte, error) {
	if _, err := archive.Content(key, payload); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	created, err := c.store.Put(ctx, key, payload)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", key, err)
	}
	return c.winner(ctx, key, payload, created)
}

// winner returns the artifact actually stored under key. When another
// writer got there first, ours was dropped and theirs is what gets indexed.
func (c *Coordinator) winner(ctx context.Context, key string, payload []byte, created bool) ([]byte, error) {
	if created {
		return payload, nil
	}
	stored, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read stored %s: %w", key, err)
	}
	return stored, nil
}

func (c *Coordinator) recordArtifacts(ctx context.Context, l logging.Logger, artifacts []models.Artifact) {
	if c.index == nil || len(artifacts) == 0 {
		return
	}
	if _, err := c.index.RecordArtifacts(context.WithoutCancel(ctx), artifacts); err != nil {
		l.Warn(ctx, "artifacts not indexed", "count", len(artifacts), "error", err)
	}
}

func (c *Coordinator) recordRun(ctx context.Context, l logging.Logger, run models.SyncRun) {
	if c.index == nil {
		return
	}
	if err := c.index.RecordRun(ctx, run); err != nil {
		l.Warn(ctx, "sync run not recorded", "error", err)
	}
}

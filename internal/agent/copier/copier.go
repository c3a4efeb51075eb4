// Package copier is the agent side of a sync: it classifies requested files
// against the authorized roots and packs the eligible ones, either all at
// once into a batch archive or one at a time.
package copier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/sourcesync/internal/archive"
	"github.com/dmitrijs2005/sourcesync/internal/common"
	"github.com/dmitrijs2005/sourcesync/internal/containment"
	"github.com/dmitrijs2005/sourcesync/internal/logging"
	"github.com/dmitrijs2005/sourcesync/internal/models"
	"github.com/dmitrijs2005/sourcesync/internal/storagekey"
)

// Filesystem access, replaceable in tests.
var (
	statFile = os.Stat
	openFile = os.Open
)

// Copier reads files on the agent. It holds no per-request state and is
// safe for concurrent use.
type Copier struct {
	logger      logging.Logger
	exportRoots []string
}

// New returns a Copier. exportRoots, when non-empty, caps the roots a caller
// may authorize: requested roots outside all of them are ignored.
func New(l logging.Logger, exportRoots []string) *Copier {
	return &Copier{
		logger:      l.With("module", "copier"),
		exportRoots: exportRoots,
	}
}

// eligible is a file that passed classification.
type eligible struct {
	ref  models.FileReference
	key  string
	path string
}

// CopyBatch classifies every file and packs the eligible ones into a single
// archive. Per-file problems end up in the outcome; an error is returned
// only when ctx is cancelled or the archive itself cannot be finished.
func (c *Copier) CopyBatch(ctx context.Context, files []models.FileReference, roots models.AuthorizedRoots) (models.BatchResult, error) {
	policy := c.policy(ctx, roots)

	var tally models.Tally
	toCopy := make([]eligible, 0, len(files))

	for _, ref := range files {
		if err := ctx.Err(); err != nil {
			return models.BatchResult{}, common.Interrupted(err)
		}
		path, status, diag := c.classify(policy, ref)
		switch status {
		case models.StatusNotFound:
			tally.NotFound()
		case models.StatusNotInWorkspace:
			tally.NotInWorkspace()
		case models.StatusError:
			tally.Errorf("%s", diag)
			c.logger.Warn(ctx, "file not readable", "logical_name", ref.LogicalName, "error", diag)
		default:
			toCopy = append(toCopy, eligible{ref: ref, key: storagekey.Of(ref.LogicalName), path: path})
		}
	}

	var buf bytes.Buffer
	w := archive.NewWriter(&buf)
	for _, e := range toCopy {
		if err := ctx.Err(); err != nil {
			return models.BatchResult{}, common.Interrupted(err)
		}
		if err := c.add(w, e); err != nil {
			tally.Errorf("%s: %v", e.ref.LogicalName, err)
			c.logger.Warn(ctx, "file not archived", "logical_name", e.ref.LogicalName, "error", err)
			continue
		}
		tally.Copied()
	}
	if err := w.Close(); err != nil {
		return models.BatchResult{}, fmt.Errorf("finish archive: %w", err)
	}

	res := models.BatchResult{Outcome: tally.Outcome()}
	if w.Len() > 0 {
		res.Archive = buf.Bytes()
	}

	c.logger.Info(ctx, "batch packed",
		"files", len(files), "archived", w.Len(), "archive_bytes", len(res.Archive),
		"summary", res.Outcome.Summary())
	return res, nil
}

func (c *Copier) add(w *archive.Writer, e eligible) error {
	f, err := openFile(e.path)
	if err != nil {
		return err
	}
	defer f.Close()
	return w.Add(e.key, f)
}

// CopyFile runs the same classification for a single file and returns its
// stored form when eligible.
func (c *Copier) CopyFile(ctx context.Context, ref models.FileReference, roots models.AuthorizedRoots) (models.FileResult, error) {
	if err := ctx.Err(); err != nil {
		return models.FileResult{}, common.Interrupted(err)
	}

	path, status, diag := c.classify(c.policy(ctx, roots), ref)
	if status != models.StatusCopied {
		if status == models.StatusError {
			c.logger.Warn(ctx, "file not readable", "logical_name", ref.LogicalName, "error", diag)
		}
		return models.FileResult{Status: status, Diagnostic: diag}, nil
	}

	f, err := openFile(path)
	if err != nil {
		return errorResult(ref, err), nil
	}
	defer f.Close()

	payload, err := archive.Payload(storagekey.Of(ref.LogicalName), f)
	if err != nil {
		return errorResult(ref, err), nil
	}
	return models.FileResult{Status: models.StatusCopied, Payload: payload}, nil
}

func errorResult(ref models.FileReference, err error) models.FileResult {
	return models.FileResult{Status: models.StatusError, Diagnostic: fmt.Sprintf("%s: %v", ref.LogicalName, err)}
}

func (c *Copier) policy(ctx context.Context, roots models.AuthorizedRoots) *containment.Policy {
	roots, dropped := containment.Clamp(roots, c.exportRoots)
	if len(dropped) > 0 {
		c.logger.Warn(ctx, "roots outside export roots ignored", "roots", dropped)
	}
	p, err := containment.New(roots)
	if err != nil {
		c.logger.Warn(ctx, "unresolvable roots ignored", "error", err)
	}
	return p
}

// classify decides the fate of one file. The first matching rule wins:
// missing, outside the roots, unreadable, eligible. Eligible files are
// reported as StatusCopied together with the canonical path to read.
func (c *Copier) classify(policy *containment.Policy, ref models.FileReference) (string, models.FileStatus, string) {
	info, statErr := statFile(ref.AbsolutePath)
	if containment.IsNotExist(statErr) {
		return "", models.StatusNotFound, ""
	}

	// A path that cannot be searched cannot be resolved either; report it
	// only when it was named inside the roots.
	if errors.Is(statErr, fs.ErrPermission) {
		if !policy.LexicallyInside(ref.AbsolutePath) {
			return "", models.StatusNotInWorkspace, ""
		}
		return "", models.StatusError, fmt.Sprintf("%s: %v", ref.LogicalName, statErr)
	}

	path, ok := policy.Check(ref.AbsolutePath)
	if !ok {
		return "", models.StatusNotInWorkspace, ""
	}

	if statErr != nil {
		return "", models.StatusError, fmt.Sprintf("%s: %v", ref.LogicalName, statErr)
	}
	if !info.Mode().IsRegular() {
		return "", models.StatusError, fmt.Sprintf("%s: %s is not a regular file", ref.LogicalName, ref.AbsolutePath)
	}
	if info.Size() > archive.MaxFileSize {
		return "", models.StatusError, fmt.Sprintf("%s: %d bytes exceeds the %d byte limit", ref.LogicalName, info.Size(), archive.MaxFileSize)
	}

	f, err := openFile(path)
	if err != nil {
		return "", models.StatusError, fmt.Sprintf("%s: %v", ref.LogicalName, err)
	}
	_ = f.Close()

	return path, models.StatusCopied, ""
}

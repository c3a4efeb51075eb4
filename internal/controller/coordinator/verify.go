package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sourcesync/internal/archive"
	"github.com/dmitrijs2005/sourcesync/internal/common"
	"github.com/dmitrijs2005/sourcesync/internal/controller/index"
)

// ErrNoIndex is returned by operations that need the artifact index when
// none is configured.
var ErrNoIndex = errors.New("artifact index is not configured")

// VerifyReport is the result of checking stored artifacts against the index.
type VerifyReport struct {
	Checked  int
	Problems []string
}

// OK reports whether every indexed artifact was found intact.
func (r VerifyReport) OK() bool { return len(r.Problems) == 0 }

// Verify reads every indexed artifact back from the store and checks that
// it is present, still decodes and matches its recorded digest.
func (c *Coordinator) Verify(ctx context.Context) (VerifyReport, error) {
	if c.index == nil {
		return VerifyReport{}, ErrNoIndex
	}
	artifacts, err := c.index.Artifacts(ctx)
	if err != nil {
		return VerifyReport{}, err
	}

	var rep VerifyReport
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return rep, common.Interrupted(err)
		}
		rep.Checked++

		payload, err := c.store.Get(ctx, a.StorageKey)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			rep.Problems = append(rep.Problems, fmt.Sprintf("%s: missing from store", a.LogicalName))
			continue
		case err != nil:
			rep.Problems = append(rep.Problems, fmt.Sprintf("%s: %v", a.LogicalName, err))
			continue
		}

		if got := index.Digest(payload); got != a.Digest {
			rep.Problems = append(rep.Problems, fmt.Sprintf("%s: digest %s, want %s", a.LogicalName, got, a.Digest))
			continue
		}
		if _, err := archive.Content(a.StorageKey, payload); err != nil {
			rep.Problems = append(rep.Problems, fmt.Sprintf("%s: %v", a.LogicalName, err))
		}
	}

	c.logger.Info(ctx, "verify finished", "checked", rep.Checked, "problems", len(rep.Problems))
	return rep, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/sourcesync/internal/common"
	"github.com/dmitrijs2005/sourcesync/internal/controller/coordinator"
	"github.com/dmitrijs2005/sourcesync/internal/controller/report"
	"github.com/dmitrijs2005/sourcesync/internal/controller/store"
	"github.com/dmitrijs2005/sourcesync/internal/models"
	"github.com/dmitrijs2005/sourcesync/internal/storagekey"
)

// ErrUsage is returned for a missing or unknown command.
var ErrUsage = errors.New("usage")

// ErrRoot is returned by sync when an authorized root is missing or relative.
var ErrRoot = errors.New("authorized roots must be absolute paths")

const recentRuns = 20

func (app *App) usage() {
	fmt.Fprintln(app.out, "Usage: controller [flags] <command> [args]")
	fmt.Fprintln(app.out, "Commands:")
	fmt.Fprintln(app.out, "  sync <report>...     copy the files referenced by each report")
	fmt.Fprintln(app.out, "  cat <logical-name>   print a stored file")
	fmt.Fprintln(app.out, "  runs                 list recent sync runs")
	fmt.Fprintln(app.out, "  verify               check stored artifacts against the index")
	fmt.Fprintln(app.out, "  ping                 check the agent answers")
}

func (app *App) sync(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		fmt.Fprintln(app.out, "Usage: sync <report>...")
		return ErrUsage
	}

	roots := app.roots()
	if err := checkRoots(roots); err != nil {
		return err
	}
	for _, p := range paths {
		r, err := report.Load(p)
		if err != nil {
			return err
		}

		out, err := app.coordinator.Sync(ctx, r.Files, roots)
		fmt.Fprintf(app.out, "%s: %s\n", r.ID, out.Summary())
		if out.Skipped > 0 {
			fmt.Fprintf(app.out, "%s: %d already stored\n", r.ID, out.Skipped)
		}
		fmt.Fprintf(app.out, "%s: %d diagnostic lines\n", r.ID, len(out.Diagnostics))
		for _, d := range out.Diagnostics {
			fmt.Fprintf(app.out, "  %s\n", d)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// checkRoots rejects roots that would be resolved against the agent's
// working directory.
func checkRoots(r models.AuthorizedRoots) error {
	if r.WorkspaceRoot == "" {
		return fmt.Errorf("%w: workspace root is not set (-w)", ErrRoot)
	}
	for _, root := range append([]string{r.WorkspaceRoot}, r.ExtraRoots...) {
		if !filepath.IsAbs(root) {
			return fmt.Errorf("%w: %q", ErrRoot, root)
		}
	}
	return nil
}

func (app *App) cat(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(app.out, "Usage: cat <logical-name>")
		return ErrUsage
	}

	content, err := store.ReadContent(ctx, app.store, storagekey.Of(args[0]))
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%s is not stored: %w", args[0], err)
	}
	if err != nil {
		return err
	}
	_, err = app.out.Write(content)
	return err
}

func (app *App) runs(ctx context.Context) error {
	if app.index == nil {
		return coordinator.ErrNoIndex
	}
	runs, err := app.index.RecentRuns(ctx, recentRuns)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tDURATION\tMODE\tCANDIDATES\tSKIPPED\tSUMMARY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			r.Mode, r.Candidates, r.Outcome.Skipped, r.Outcome.Summary())
	}
	return tw.Flush()
}

func (app *App) verify(ctx context.Context) error {
	rep, err := app.coordinator.Verify(ctx)
	if err != nil {
		return err
	}
	for _, p := range rep.Problems {
		fmt.Fprintf(app.out, "  %s\n", p)
	}
	fmt.Fprintf(app.out, "%d artifacts checked, %d problems\n", rep.Checked, len(rep.Problems))
	if !rep.OK() {
		return fmt.Errorf("%d artifacts failed verification", len(rep.Problems))
	}
	return nil
}

func (app *App) ping(ctx context.Context) error {
	if app.agent == nil {
		return ErrNoAgent
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	host, err := app.agent.Ping(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "agent %s at %s is up\n", host, app.config.AgentAddr)
	return nil
}

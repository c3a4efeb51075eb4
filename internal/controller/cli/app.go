// Package cli is the controller command line: it wires the result store,
// the artifact index and the agent connection, then runs one command.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/sourcesync/internal/agent/copier"
	"github.com/dmitrijs2005/sourcesync/internal/controller/client"
	"github.com/dmitrijs2005/sourcesync/internal/controller/config"
	"github.com/dmitrijs2005/sourcesync/internal/controller/coordinator"
	"github.com/dmitrijs2005/sourcesync/internal/controller/index"
	"github.com/dmitrijs2005/sourcesync/internal/controller/store"
	"github.com/dmitrijs2005/sourcesync/internal/logging"
	"github.com/dmitrijs2005/sourcesync/internal/models"
)

// ErrNoAgent is returned by commands that need an agent when none is
// configured.
var ErrNoAgent = errors.New("no agent address configured")

type App struct {
	config      *config.Config
	logger      logging.Logger
	out         io.Writer
	store       store.Store
	index       *index.Index
	agent       *client.GRPCClient
	coordinator *coordinator.Coordinator
}

// NewApp opens everything the configuration asks for. The caller must
// Close the app.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger, out io.Writer) (*App, error) {
	app := &App{config: c, logger: logger.With("app", "controller"), out: out}

	st, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}
	app.store = st

	if c.IndexDSN != "" {
		idx, err := index.Open(ctx, c.IndexDSN)
		if err != nil {
			return nil, err
		}
		app.index = idx
	}

	var (
		batch  coordinator.BatchCopier
		single coordinator.FileCopier
		idx    coordinator.Index
	)
	if c.AgentAddr != "" {
		agent, err := client.NewAgentClient(c.AgentAddr, c.SecretKey, c.MaxRecvSize())
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.agent = agent
		remote := &deadlineCopier{agent: agent, timeout: c.RPCTimeout.Duration}
		batch, single = remote, remote
	} else {
		single = copier.New(app.logger, nil)
	}
	if app.index != nil {
		idx = app.index
	}

	app.coordinator = coordinator.New(st, batch, single, idx, app.logger)
	return app, nil
}

func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	var st store.Store
	if c.S3.Bucket != "" {
		s3, err := store.NewS3Store(ctx, store.S3Config{
			Bucket:       c.S3.Bucket,
			Prefix:       c.S3.Prefix,
			Region:       c.S3.Region,
			BaseEndpoint: c.S3.BaseEndpoint,
			AccessKey:    c.S3.AccessKey,
			SecretKey:    c.S3.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		st = s3
	} else {
		st = store.NewDirStore(c.StoreDir)
	}

	if c.CacheSize <= 0 {
		return st, nil
	}
	cached, err := store.NewCachedStore(st, c.CacheSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

func (app *App) Close() error {
	var errs []error
	if app.agent != nil {
		errs = append(errs, app.agent.Close())
	}
	if app.index != nil {
		errs = append(errs, app.index.Close())
	}
	return errors.Join(errs...)
}

func (app *App) roots() models.AuthorizedRoots {
	return models.AuthorizedRoots{WorkspaceRoot: app.config.WorkspaceRoot, ExtraRoots: app.config.ExtraRoots}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run executes the command in args. SIGINT and SIGTERM cancel it.
func (app *App) Run(ctx context.Context, args []string) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	stop := app.initSignalHandler(cancelFunc)
	defer stop()

	if len(args) == 0 {
		app.usage()
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "sync":
		return app.sync(ctx, rest)
	case "cat":
		return app.cat(ctx, rest)
	case "runs":
		return app.runs(ctx)
	case "verify":
		return app.verify(ctx)
	case "ping":
		return app.ping(ctx)
	case "help":
		app.usage()
		return nil
	default:
		app.usage()
		return ErrUsage
	}
}

// deadlineCopier bounds every agent call by timeout.
type deadlineCopier struct {
	agent   *client.GRPCClient
	timeout time.Duration
}

func (d *deadlineCopier) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.timeout)
}

func (d *deadlineCopier) CopyBatch(ctx context.Context, files []models.FileReference, roots models.AuthorizedRoots) (models.BatchResult, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	return d.agent.CopyBatch(ctx, files, roots)
}

func (d *deadlineCopier) CopyFile(ctx context.Context, ref models.FileReference, roots models.AuthorizedRoots) (models.FileResult, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	return d.agent.CopyFile(ctx, ref, roots)
}

// Package agent wires the agent process: configuration, logging, the copier
// and its gRPC endpoint.
package agent

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/sourcesync/internal/agent/config"
	"github.com/dmitrijs2005/sourcesync/internal/agent/copier"
	gs "github.com/dmitrijs2005/sourcesync/internal/agent/grpc"
	"github.com/dmitrijs2005/sourcesync/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *gs.GRPCServer
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel).With("app", "agent")

	cp := copier.New(logger, c.ExportRoots)
	srv := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, cp, c.SecretKey, c.MaxSendSize())

	return &App{config: c, logger: logger, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	app.logger.Info(ctx, "Starting agent...", "export_roots", app.config.ExportRoots)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		return err
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sourcesync/internal/buildinfo"
	"github.com/dmitrijs2005/sourcesync/internal/controller/cli"
	"github.com/dmitrijs2005/sourcesync/internal/controller/config"
	"github.com/dmitrijs2005/sourcesync/internal/flagx"
	"github.com/dmitrijs2005/sourcesync/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stderr)

	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogLevel)

	ctx := context.Background()
	app, err := cli.NewApp(ctx, cfg, logger, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = app.Run(ctx, flagx.Positional(os.Args[1:]))
	_ = app.Close()
	if err != nil {
		if !errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

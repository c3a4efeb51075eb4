package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/sourcesync/internal/agent"
	"github.com/dmitrijs2005/sourcesync/internal/agent/config"
	"github.com/dmitrijs2005/sourcesync/internal/buildinfo"
)

func main() {

	buildinfo.PrintBuildData(os.Stderr)

	cfg := config.LoadConfig()
	app, err := agent.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		os.Exit(1)
	}
}

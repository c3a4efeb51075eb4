package config

import (
	"flag"

	"github.com/dmitrijs2005/sourcesync/internal/flagx"
)

// parseFlags overlays command-line flags. Only the flags listed here are
// looked at, so -c/-config and unknown arguments do not break parsing.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-x", "-m", "-l"})

	fs := flag.NewFlagSet("agent", flag.ContinueOnError)

	var exportRoots flagx.StringList

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC listen address")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "shared secret key")
	fs.Var(&exportRoots, "x", "export root (repeatable)")
	fs.IntVar(&config.MaxSendSizeMiB, "m", config.MaxSendSizeMiB, "max gRPC send size (MiB)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if len(exportRoots) > 0 {
		config.ExportRoots = exportRoots
	}
}

package config

import (
	"flag"

	"github.com/dmitrijs2005/sourcesync/internal/flagx"
)

// FlagNames are the flags the controller understands besides -c/-config.
var FlagNames = []string{"-a", "-s", "-w", "-e", "-d", "-b", "-p", "-k", "-i", "-m", "-t", "-l"}

func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, FlagNames)

	fs := flag.NewFlagSet("controller", flag.ContinueOnError)

	var extraRoots flagx.StringList

	fs.StringVar(&config.AgentAddr, "a", config.AgentAddr, "agent gRPC address")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "shared secret key")
	fs.StringVar(&config.WorkspaceRoot, "w", config.WorkspaceRoot, "workspace root")
	fs.Var(&extraRoots, "e", "extra authorized root (repeatable)")
	fs.StringVar(&config.StoreDir, "d", config.StoreDir, "result store directory")
	fs.StringVar(&config.S3.Bucket, "b", config.S3.Bucket, "S3 bucket")
	fs.StringVar(&config.S3.Prefix, "p", config.S3.Prefix, "S3 key prefix")
	fs.IntVar(&config.CacheSize, "k", config.CacheSize, "existence cache size")
	fs.StringVar(&config.IndexDSN, "i", config.IndexDSN, "index DSN")
	fs.IntVar(&config.MaxRecvSizeMiB, "m", config.MaxRecvSizeMiB, "max gRPC receive size (MiB)")
	fs.DurationVar(&config.RPCTimeout.Duration, "t", config.RPCTimeout.Duration, "agent call timeout")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if len(extraRoots) > 0 {
		config.ExtraRoots = extraRoots
	}
}

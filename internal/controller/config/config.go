// Package config loads controller settings.
//
// Sources, later ones win: built-in defaults, the JSON file named by -c or
// -config, SOURCESYNC_* environment variables (and a .env file), then
// command-line flags.
//
// Flags:
//
//	-a string   agent gRPC address; empty copies locally without an agent
//	-s string   shared secret for agent tokens
//	-w string   workspace root on the agent, an absolute path; required by sync
//	-e string   extra authorized root; repeatable or comma separated
//	-d string   result store directory
//	-b string   S3 bucket; when set artifacts go to S3 instead of -d
//	-p string   S3 object key prefix
//	-k int      size of the existence cache, 0 disables it
//	-i string   index DSN: a SQLite file or a postgres:// URL, empty disables
//	-m int      max gRPC receive size in MiB
//	-t duration timeout of a single agent call
//	-l string   log level: debug, info, warn, error
package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/sourcesync/internal/timex"
)

type S3 struct {
	Bucket       string
	Prefix       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

type Config struct {
	AgentAddr      string
	SecretKey      string
	WorkspaceRoot  string
	ExtraRoots     []string
	StoreDir       string
	S3             S3
	CacheSize      int
	IndexDSN       string
	MaxRecvSizeMiB int
	RPCTimeout     timex.Duration
	LogLevel       string
}

func (c *Config) LoadDefaults() {
	c.AgentAddr = ""
	c.SecretKey = "secretKey"
	c.WorkspaceRoot = ""
	c.ExtraRoots = nil
	c.StoreDir = "results"
	c.S3 = S3{Prefix: "artifacts", Region: "us-east-1"}
	c.CacheSize = 4096
	c.IndexDSN = "sourcesync.db"
	c.MaxRecvSizeMiB = 64
	c.RPCTimeout = timex.Duration{Duration: 5 * time.Minute}
	c.LogLevel = "info"
}

// MaxRecvSize is MaxRecvSizeMiB in bytes.
func (c *Config) MaxRecvSize() int {
	return c.MaxRecvSizeMiB << 20
}

// LoadConfig builds the configuration from os.Args. Invalid input panics.
func LoadConfig() *Config {
	return Load(os.Args[1:])
}

// Load builds the configuration from args.
func Load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg)
	parseFlags(cfg, args)
	return cfg
}

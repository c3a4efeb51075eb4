// Package config loads agent settings.
//
// Sources, later ones win:
//
//  1. Built-in defaults (LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment: SOURCESYNC_* variables, plus a .env file in the working
//     directory when present.
//  4. Command-line flags.
//
// Flags:
//
//	-a string   gRPC listen address (default ":7000")
//	-s string   shared secret the controller signs tokens with
//	-x string   export root; repeatable or comma separated. When set, only
//	            roots inside an export root can be authorized
//	-m int      max gRPC send size in MiB
//	-l string   log level: debug, info, warn, error
package config

import "os"

type Config struct {
	EndpointAddrGRPC string
	SecretKey        string
	ExportRoots      []string
	MaxSendSizeMiB   int
	LogLevel         string
}

// LoadDefaults sets development defaults. The secret must be overridden
// outside a lab setup.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":7000"
	c.SecretKey = "secretKey"
	c.ExportRoots = nil
	c.MaxSendSizeMiB = 64
	c.LogLevel = "info"
}

// MaxSendSize is MaxSendSizeMiB in bytes.
func (c *Config) MaxSendSize() int {
	return c.MaxSendSizeMiB << 20
}

// LoadConfig applies defaults, the JSON file, the environment and finally
// the flags found in os.Args. Invalid input panics.
func LoadConfig() *Config {
	return load(os.Args[1:])
}

func load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg)
	parseFlags(cfg, args)
	return cfg
}

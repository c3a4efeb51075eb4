package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/sourcesync/internal/flagx"
)

// JsonConfig is the file form of Config. Absent keys keep their current
// value.
type JsonConfig struct {
	EndpointAddrGRPC *string  `json:"endpoint_addr_grpc"`
	SecretKey        *string  `json:"secret_key"`
	ExportRoots      []string `json:"export_roots"`
	MaxSendSizeMiB   *int     `json:"max_send_size_mib"`
	LogLevel         *string  `json:"log_level"`
}

// parseJson overlays the file named by -c/-config, if any. A missing or
// malformed file panics.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigFileFlag(args)
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrGRPC != nil {
		config.EndpointAddrGRPC = *c.EndpointAddrGRPC
	}
	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.ExportRoots != nil {
		config.ExportRoots = c.ExportRoots
	}
	if c.MaxSendSizeMiB != nil {
		config.MaxSendSizeMiB = *c.MaxSendSizeMiB
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}
}

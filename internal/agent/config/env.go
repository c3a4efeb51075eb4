package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	envAddr        = "SOURCESYNC_AGENT_ADDR"
	envSecret      = "SOURCESYNC_SECRET_KEY"
	envExportRoots = "SOURCESYNC_EXPORT_ROOTS"
	envMaxSendMiB  = "SOURCESYNC_MAX_SEND_MIB"
	envLogLevel    = "SOURCESYNC_LOG_LEVEL"
)

// parseEnv overlays SOURCESYNC_* variables. A .env file is loaded first if
// present; variables already set in the process win over it.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v, ok := os.LookupEnv(envAddr); ok {
		config.EndpointAddrGRPC = v
	}
	if v, ok := os.LookupEnv(envSecret); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv(envExportRoots); ok {
		config.ExportRoots = splitList(v)
	}
	if v, ok := os.LookupEnv(envMaxSendMiB); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(envMaxSendMiB + ": " + err.Error())
		}
		config.MaxSendSizeMiB = n
	}
	if v, ok := os.LookupEnv(envLogLevel); ok {
		config.LogLevel = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

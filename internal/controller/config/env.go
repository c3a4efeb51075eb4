package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envAgentAddr     = "SOURCESYNC_AGENT_ADDR"
	envSecret        = "SOURCESYNC_SECRET_KEY"
	envWorkspaceRoot = "SOURCESYNC_WORKSPACE_ROOT"
	envExtraRoots    = "SOURCESYNC_EXTRA_ROOTS"
	envStoreDir      = "SOURCESYNC_STORE_DIR"
	envS3Bucket      = "SOURCESYNC_S3_BUCKET"
	envS3Prefix      = "SOURCESYNC_S3_PREFIX"
	envS3Region      = "SOURCESYNC_S3_REGION"
	envS3Endpoint    = "SOURCESYNC_S3_ENDPOINT"
	envS3AccessKey   = "SOURCESYNC_S3_ACCESS_KEY"
	envS3SecretKey   = "SOURCESYNC_S3_SECRET_KEY"
	envCacheSize     = "SOURCESYNC_CACHE_SIZE"
	envIndexDSN      = "SOURCESYNC_INDEX_DSN"
	envMaxRecvMiB    = "SOURCESYNC_MAX_RECV_MIB"
	envRPCTimeout    = "SOURCESYNC_RPC_TIMEOUT"
	envLogLevel      = "SOURCESYNC_LOG_LEVEL"
)

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(name + ": " + err.Error())
	}
	*dst = n
}

// parseEnv overlays SOURCESYNC_* variables, after loading .env if present.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	envString(&config.AgentAddr, envAgentAddr)
	envString(&config.SecretKey, envSecret)
	envString(&config.WorkspaceRoot, envWorkspaceRoot)
	if v, ok := os.LookupEnv(envExtraRoots); ok {
		config.ExtraRoots = splitList(v)
	}
	envString(&config.StoreDir, envStoreDir)
	envString(&config.S3.Bucket, envS3Bucket)
	envString(&config.S3.Prefix, envS3Prefix)
	envString(&config.S3.Region, envS3Region)
	envString(&config.S3.BaseEndpoint, envS3Endpoint)
	envString(&config.S3.AccessKey, envS3AccessKey)
	envString(&config.S3.SecretKey, envS3SecretKey)
	envInt(&config.CacheSize, envCacheSize)
	envString(&config.IndexDSN, envIndexDSN)
	envInt(&config.MaxRecvSizeMiB, envMaxRecvMiB)
	if v, ok := os.LookupEnv(envRPCTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(envRPCTimeout + ": " + err.Error())
		}
		config.RPCTimeout.Duration = d
	}
	envString(&config.LogLevel, envLogLevel)
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

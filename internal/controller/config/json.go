package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/sourcesync/internal/flagx"
	"github.com/dmitrijs2005/sourcesync/internal/timex"
)

type JsonS3 struct {
	Bucket       *string `json:"bucket"`
	Prefix       *string `json:"prefix"`
	Region       *string `json:"region"`
	BaseEndpoint *string `json:"base_endpoint"`
	AccessKey    *string `json:"access_key"`
	SecretKey    *string `json:"secret_key"`
}

type JsonConfig struct {
	AgentAddr      *string         `json:"agent_addr"`
	SecretKey      *string         `json:"secret_key"`
	WorkspaceRoot  *string         `json:"workspace_root"`
	ExtraRoots     []string        `json:"extra_roots"`
	StoreDir       *string         `json:"store_dir"`
	S3             *JsonS3         `json:"s3"`
	CacheSize      *int            `json:"cache_size"`
	IndexDSN       *string         `json:"index_dsn"`
	MaxRecvSizeMiB *int            `json:"max_recv_size_mib"`
	RPCTimeout     *timex.Duration `json:"rpc_timeout"`
	LogLevel       *string         `json:"log_level"`
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

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

	setString(&config.AgentAddr, c.AgentAddr)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.WorkspaceRoot, c.WorkspaceRoot)
	if c.ExtraRoots != nil {
		config.ExtraRoots = c.ExtraRoots
	}
	setString(&config.StoreDir, c.StoreDir)
	if c.S3 != nil {
		setString(&config.S3.Bucket, c.S3.Bucket)
		setString(&config.S3.Prefix, c.S3.Prefix)
		setString(&config.S3.Region, c.S3.Region)
		setString(&config.S3.BaseEndpoint, c.S3.BaseEndpoint)
		setString(&config.S3.AccessKey, c.S3.AccessKey)
		setString(&config.S3.SecretKey, c.S3.SecretKey)
	}
	setInt(&config.CacheSize, c.CacheSize)
	setString(&config.IndexDSN, c.IndexDSN)
	setInt(&config.MaxRecvSizeMiB, c.MaxRecvSizeMiB)
	if c.RPCTimeout != nil {
		config.RPCTimeout = *c.RPCTimeout
	}
	setString(&config.LogLevel, c.LogLevel)
}

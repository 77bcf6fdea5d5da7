package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the docsync CLI.
//
// Fields:
//   - DataDir: directory holding the per-owner SQLite databases.
//   - AttachDir: directory receiving downloaded attachment files.
//   - AWSRegion, AWSEndpoint: region and optional endpoint override for the
//     remote backends (the override targets local stacks in development).
//   - DynamoTable: DynamoDB table holding document records.
//   - S3Bucket: S3 bucket holding attachment blobs.
//   - SyncParallelism: concurrent queue entries during a push.
//   - RetryMaxAttempts, RetryBaseDelay: transient-failure retry policy.
//   - TombstoneHorizon: how long deletion markers are retained.
type Config struct {
	DataDir   string
	AttachDir string

	AWSRegion   string
	AWSEndpoint string
	DynamoTable string
	S3Bucket    string

	SyncParallelism  int
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	TombstoneHorizon time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	c.DataDir = filepath.Join(home, ".docsync")
	c.AttachDir = filepath.Join(home, ".docsync", "attachments")
	c.AWSRegion = "us-east-1"
	c.DynamoTable = "documents"
	c.S3Bucket = "docsync-attachments"
	c.SyncParallelism = 3
	c.RetryMaxAttempts = 5
	c.RetryBaseDelay = time.Second
	c.TombstoneHorizon = 90 * 24 * time.Hour
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

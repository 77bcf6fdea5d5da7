package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mkarpins/docsync/internal/flagx"
	"github.com/mkarpins/docsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "1s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	DataDir   string `json:"data_dir"`
	AttachDir string `json:"attach_dir"`

	AWSRegion   string `json:"aws_region"`
	AWSEndpoint string `json:"aws_endpoint"`
	DynamoTable string `json:"dynamo_table"`
	S3Bucket    string `json:"s3_bucket"`

	SyncParallelism  int            `json:"sync_parallelism"`
	RetryMaxAttempts int            `json:"retry_max_attempts"`
	RetryBaseDelay   timex.Duration `json:"retry_base_delay"`

	TombstoneHorizon timex.Duration `json:"tombstone_horizon"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags; when absent, nothing is loaded.
// Zero-valued JSON fields leave the existing Config values untouched, so a
// partial file only overrides what it names.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.AttachDir != "" {
		cfg.AttachDir = jc.AttachDir
	}
	if jc.AWSRegion != "" {
		cfg.AWSRegion = jc.AWSRegion
	}
	if jc.AWSEndpoint != "" {
		cfg.AWSEndpoint = jc.AWSEndpoint
	}
	if jc.DynamoTable != "" {
		cfg.DynamoTable = jc.DynamoTable
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.SyncParallelism > 0 {
		cfg.SyncParallelism = jc.SyncParallelism
	}
	if jc.RetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = jc.RetryMaxAttempts
	}
	if jc.RetryBaseDelay.Duration > 0 {
		cfg.RetryBaseDelay = time.Duration(jc.RetryBaseDelay.Duration)
	}
	if jc.TombstoneHorizon.Duration > 0 {
		cfg.TombstoneHorizon = time.Duration(jc.TombstoneHorizon.Duration)
	}
}

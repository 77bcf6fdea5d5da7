// Package config loads runtime configuration for the docsync CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   data directory for the local store
//	-r string   AWS region
//	-e string   AWS endpoint override (local stacks)
//	-t string   DynamoDB table name
//	-b string   S3 bucket name
//	-p int      sync parallelism
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "2s" or integer nanoseconds:
//
//	{
//	  "data_dir": "/var/lib/docsync",
//	  "aws_region": "eu-west-1",
//	  "dynamo_table": "documents",
//	  "s3_bucket": "docsync-attachments",
//	  "retry_base_delay": "1s",
//	  "tombstone_horizon": "2160h"
//	}
//
// Primary API
//
//   - type Config                     — runtime settings for store, remote and sync
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; AWS
// credentials are resolved by the SDK's default chain.
package config

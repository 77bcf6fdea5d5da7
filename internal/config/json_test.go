package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"aws_region":        "eu-west-1",
		"dynamo_table":      "docs-prod",
		"retry_base_delay":  "2s",
		"tombstone_horizon": "720h",
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "eu-west-1", cfg.AWSRegion)
		assert.Equal(t, "docs-prod", cfg.DynamoTable)
		assert.Equal(t, 2*time.Second, cfg.RetryBaseDelay)
		assert.Equal(t, 720*time.Hour, cfg.TombstoneHorizon)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{
			"s3_bucket": "docs-blobs",
		})
		os.Args = []string{"testbin", "-config", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "docs-blobs", cfg.S3Bucket)
		assert.Equal(t, "us-east-1", cfg.AWSRegion)
		assert.Equal(t, 3, cfg.SyncParallelism)
	})

	t.Run("no CONFIG and no flags, no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{AWSRegion: "defaults-region", SyncParallelism: 42}
		parseJson(cfg)

		assert.Equal(t, "defaults-region", cfg.AWSRegion)
		assert.Equal(t, 42, cfg.SyncParallelism)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}

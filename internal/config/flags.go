package config

import (
	"flag"
	"os"

	"github.com/mkarpins/docsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   data directory for the local store
//	-r string   AWS region
//	-e string   AWS endpoint override (local stacks)
//	-t string   DynamoDB table name
//	-b string   S3 bucket name
//	-p int      sync parallelism
//
// Note: The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-r", "-e", "-t", "-b", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory for the local store")
	fs.StringVar(&cfg.AWSRegion, "r", cfg.AWSRegion, "AWS region")
	fs.StringVar(&cfg.AWSEndpoint, "e", cfg.AWSEndpoint, "AWS endpoint override")
	fs.StringVar(&cfg.DynamoTable, "t", cfg.DynamoTable, "DynamoDB table name")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket name")
	fs.IntVar(&cfg.SyncParallelism, "p", cfg.SyncParallelism, "sync parallelism")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mkarpins/docsync/internal/buildinfo"
	"github.com/mkarpins/docsync/internal/cli"
	"github.com/mkarpins/docsync/internal/config"
	"github.com/mkarpins/docsync/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	app := cli.NewApp(cfg, logger)
	app.Run(ctx)
}

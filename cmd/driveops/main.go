package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/vinitafleet/driveops/internal/client/cli"
	"github.com/vinitafleet/driveops/internal/client/config"
	"github.com/vinitafleet/driveops/internal/logging"
)

func main() {
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	app, err := cli.NewApp(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(context.Background())
}

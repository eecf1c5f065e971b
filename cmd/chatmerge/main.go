package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lanternworks/chatmerge/internal/api"
	"github.com/lanternworks/chatmerge/internal/config"
	"github.com/lanternworks/chatmerge/internal/events"
	"github.com/lanternworks/chatmerge/internal/ingest"
	"github.com/lanternworks/chatmerge/internal/parser"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("chatmerge starting", "port", cfg.Port, "map_omitted_media", cfg.MapOmittedMedia)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One parse session for the whole run.
	ingestor := ingest.New(parser.Options{MapOmittedMedia: cfg.MapOmittedMedia}, slog.Default())

	// The NATS publisher is optional; without a broker there are no
	// import notifications.
	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		var err error
		publisher, err = events.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, running without import events")
	}

	srv := api.NewServer(cfg.Port, ingestor, publisher, slog.Default())

	// Initial imports: configured directory plus command-line paths.
	var paths []string
	if cfg.ImportDir != "" {
		paths = append(paths, cfg.ImportDir)
	}
	paths = append(paths, os.Args[1:]...)

	for _, path := range paths {
		batch, conversations, err := srv.Import(ctx, path)
		if err != nil {
			slog.Error("initial import failed", "path", path, "error", err)
			continue
		}
		slog.Info("initial import complete",
			"path", path,
			"batch_id", batch.BatchID,
			"sources", batch.Sources,
			"messages", batch.Messages,
			"conversations", conversations,
		)
	}

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("chatmerge ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("chatmerge stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// Command server runs the key-value store's TCP server: it parses the
// spec-mandated startup flags, opens (or recovers) the durable engine, and
// serves connections until interrupted.
package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jassi-singh/aether-kv/internal/config"
	"github.com/jassi-singh/aether-kv/internal/engine"
	"github.com/jassi-singh/aether-kv/internal/server"
)

func main() {
	slogHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(slogHandler))

	flags, err := config.ParseServerFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	tuning, err := config.LoadTuning("tuning.yaml")
	if err != nil {
		log.Fatalf("failed to load tuning configuration: %v", err)
	}
	slog.Info("main: configuration loaded",
		"port", flags.Port,
		"filename", flags.Filename,
		"threads", flags.Threads,
		"batch_size", tuning.BatchSize,
		"sync_interval", tuning.SyncIntervalSeconds,
	)

	eng, err := engine.Open(flags.Filename, tuning)
	if err != nil {
		log.Fatalf("failed to open engine: %v", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			slog.Error("main: error closing engine", "error", err)
		}
	}()

	srv, err := server.New(flags.Port, eng, int(flags.Threads))
	if err != nil {
		log.Fatalf("failed to start server: %v", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		slog.Info("main: shutdown signal received")
		if err := srv.Close(); err != nil {
			slog.Error("main: error closing listener", "error", err)
		}
	}()

	slog.Info("main: aether-kv server started")
	if err := srv.Serve(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

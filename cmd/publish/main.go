package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jwebster45206/npc-responder/internal/config"
	"github.com/jwebster45206/npc-responder/internal/logger"
	"github.com/jwebster45206/npc-responder/internal/storage"
	"github.com/jwebster45206/npc-responder/pkg/dialogue"
)

// publish writes a responder definition into Redis, where it overrides the
// bundled file with the same ID. With -delete it removes the override.
func main() {
	remove := flag.Bool("delete", false, "remove the Redis override for the given responder ID")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <responder.json>\n       %s -delete <responder_id>\n", os.Args[0], os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Setup(cfg)

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	defer func() {
		_ = store.Close() // Ignore error in defer
	}()

	// Tolerate a Redis container that is still starting.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.WaitForConnection(ctx); err != nil {
		logger.WithError(log, err).Error("Failed to connect to Redis")
		os.Exit(1)
	}

	msg, err := run(ctx, store, log, *remove, flag.Arg(0))
	if err != nil {
		os.Exit(1)
	}
	fmt.Println(msg)
}

// run publishes the definition at arg, or with remove set deletes the
// override whose ID is arg. Failures are logged before being returned.
func run(ctx context.Context, store storage.Storage, log *slog.Logger, remove bool, arg string) (string, error) {
	if remove {
		if err := store.DeleteResponder(ctx, arg); err != nil {
			logger.WithError(logger.WithResponderID(log, arg), err).Error("Failed to delete responder")
			return "", err
		}
		return fmt.Sprintf("✅ Removed override for %s", arg), nil
	}

	def, err := loadDefinition(arg)
	if err != nil {
		logger.WithError(log, err).Error("Failed to load definition", "file", arg)
		return "", err
	}

	if err := store.SaveResponder(ctx, def); err != nil {
		logger.WithError(logger.WithResponderID(log, def.ID), err).Error("Failed to publish responder")
		return "", err
	}
	return fmt.Sprintf("✅ Published %s (%d rules)", def.ID, len(def.Rules)), nil
}

func loadDefinition(path string) (*dialogue.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	def, err := dialogue.DecodeDefinition(data, true)
	if err != nil {
		return nil, err
	}
	if !dialogue.IsValidID(def.ID) {
		return nil, fmt.Errorf("responder id %q must be lowercase snake_case", def.ID)
	}
	return def, nil
}

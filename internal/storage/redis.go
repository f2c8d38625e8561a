package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/npc-responder/pkg/dialogue"
)

const responderKeyPrefix = "responder:"

// RedisStorage implements the Storage interface using Redis for authored
// responder overrides and the filesystem for bundled definitions.
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL may be a
// redis:// URL or a bare host:port.
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) *RedisStorage {
	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  redis.NewClient(redisOptions(redisURL)),
		logger:  logger,
		dataDir: dataDir,
	}
}

func redisOptions(redisURL string) *redis.Options {
	if strings.Contains(redisURL, "://") {
		if opts, err := redis.ParseURL(redisURL); err == nil {
			return opts
		}
	}
	return &redis.Options{Addr: redisURL}
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Responder operations (Redis overrides, filesystem fallback)

func (r *RedisStorage) GetResponder(ctx context.Context, id string) (*dialogue.Definition, error) {
	if !dialogue.IsValidID(id) {
		return nil, fmt.Errorf("invalid responder id %q", id)
	}

	data, err := r.client.Get(ctx, responderKeyPrefix+id).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return r.loadResponderFile(id)
	case err != nil:
		r.logger.Error("Failed to load responder", "responder_id", id, "error", err)
		return nil, fmt.Errorf("failed to load responder: %w", err)
	}

	def, err := dialogue.DecodeDefinition(data, false)
	if err != nil {
		r.logger.Error("Failed to unmarshal responder", "responder_id", id, "error", err)
		return nil, err
	}
	def.ID = id
	return def, nil
}

func (r *RedisStorage) SaveResponder(ctx context.Context, def *dialogue.Definition) error {
	if def == nil {
		return errors.New("responder definition cannot be nil")
	}
	if !dialogue.IsValidID(def.ID) {
		return fmt.Errorf("invalid responder id %q", def.ID)
	}

	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal responder: %w", err)
	}

	if err := r.client.Set(ctx, responderKeyPrefix+def.ID, data, 0).Err(); err != nil {
		r.logger.Error("Failed to save responder", "responder_id", def.ID, "error", err)
		return fmt.Errorf("failed to save responder: %w", err)
	}
	return nil
}

// DeleteResponder removes the Redis override for id. A bundled definition
// with the same ID becomes visible again.
func (r *RedisStorage) DeleteResponder(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, responderKeyPrefix+id).Err(); err != nil {
		r.logger.Error("Failed to delete responder", "responder_id", id, "error", err)
		return fmt.Errorf("failed to delete responder: %w", err)
	}
	return nil
}

func (r *RedisStorage) ListResponders(ctx context.Context) ([]string, error) {
	ids, err := r.listResponderFiles()
	if err != nil {
		return nil, err
	}

	iter := r.client.Scan(ctx, 0, responderKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), responderKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		r.logger.Error("Failed to scan responders", "error", err)
		return nil, fmt.Errorf("failed to list responders: %w", err)
	}

	return uniqueSorted(ids), nil
}

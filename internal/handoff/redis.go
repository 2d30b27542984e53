// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultRedisKey = "pipview:handoff"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string // defaults to pipview:handoff
}

// RedisStore keeps the entry under one key. Consume uses GETDEL so the read
// and the clear are one server-side step.
type RedisStore struct {
	client *redis.Client
	key    string
	opts   Options
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig, opts Options, logger zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to redis handoff store")

	return newRedisStoreWithClient(client, cfg.Key, opts), nil
}

func newRedisStoreWithClient(client *redis.Client, key string, opts Options) *RedisStore {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{client: client, key: key, opts: opts}
}

func (s *RedisStore) Publish(ctx context.Context, entry model.HandoffEntry) error {
	entry = s.opts.stamp(entry)
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode handoff entry: %w", err)
	}
	// The TTL lets redis drop abandoned entries on its own; fresh() still
	// guards against clock skew between publisher and consumer.
	return s.client.Set(ctx, s.key, data, s.opts.MaxAge).Err()
}

func (s *RedisStore) Consume(ctx context.Context) (model.HandoffEntry, bool, error) {
	data, err := s.client.GetDel(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.HandoffEntry{}, false, nil
	}
	if err != nil {
		return model.HandoffEntry{}, false, err
	}

	var e model.HandoffEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return model.HandoffEntry{}, false, fmt.Errorf("decode handoff entry: %w", err)
	}
	if !s.opts.fresh(BackendRedis, e) {
		return model.HandoffEntry{}, false, nil
	}
	return e, true, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

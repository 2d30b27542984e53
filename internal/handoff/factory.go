// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package handoff

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/domain/session/ports"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/ManuGH/pipview/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	BackendMemory = "memory"
	BackendSqlite = "sqlite"
	BackendRedis  = "redis"
	BackendBadger = "badger"
	BackendFile   = "file"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendMemory, BackendSqlite, BackendRedis, BackendBadger, BackendFile}

// Config selects and parameterises a backend.
type Config struct {
	Backend string
	// Path is the sqlite database, badger directory or JSON file. Relative
	// paths resolve under DataDir.
	Path    string
	DataDir string
	Redis   RedisConfig
	MaxAge  time.Duration
}

func (c Config) resolvePath(def string) string {
	p := c.Path
	if p == "" {
		p = def
	}
	if !filepath.IsAbs(p) && c.DataDir != "" {
		p = filepath.Join(c.DataDir, p)
	}
	return p
}

// Open builds the configured backend wrapped with metrics and debug logging.
func Open(ctx context.Context, cfg Config) (ports.HandoffStore, error) {
	logger := xglog.WithComponent("handoff")
	opts := Options{MaxAge: cfg.MaxAge}

	var (
		store ports.HandoffStore
		err   error
	)
	switch cfg.Backend {
	case "", BackendMemory:
		cfg.Backend = BackendMemory
		store = NewMemoryStore(opts)
	case BackendSqlite:
		store, err = NewSqliteStore(ctx, cfg.resolvePath("handoff.sqlite"), opts)
	case BackendRedis:
		store, err = NewRedisStore(ctx, cfg.Redis, opts, logger)
	case BackendBadger:
		store, err = OpenBadgerStore(cfg.resolvePath("handoff.badger"), opts)
	case BackendFile:
		store, err = NewFileStore(cfg.resolvePath("handoff.json"), opts)
	default:
		return nil, fmt.Errorf("unknown handoff backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s handoff store: %w", cfg.Backend, err)
	}

	logger.Info().Str(xglog.FieldBackend, cfg.Backend).Dur("max_age", cfg.MaxAge).Msg("handoff store ready")
	return Instrument(store, cfg.Backend, logger), nil
}

// Instrument wraps a store with metrics and debug logging.
func Instrument(store ports.HandoffStore, backend string, logger zerolog.Logger) ports.HandoffStore {
	return &instrumented{inner: store, backend: backend, logger: logger}
}

type instrumented struct {
	inner   ports.HandoffStore
	backend string
	logger  zerolog.Logger
}

func (s *instrumented) Publish(ctx context.Context, entry model.HandoffEntry) error {
	start := time.Now()
	err := s.inner.Publish(ctx, entry)
	metrics.ObserveHandoffOp(s.backend, "publish", resultLabel(err, true), time.Since(start))
	if err != nil {
		return err
	}
	s.logger.Debug().
		Str(xglog.FieldAddress, xglog.MaskAddress(entry.SourceAddress)).
		Int64(xglog.FieldPositionMS, entry.Position.Milliseconds()).
		Msg("handoff entry published")
	return nil
}

func (s *instrumented) Consume(ctx context.Context) (model.HandoffEntry, bool, error) {
	start := time.Now()
	e, ok, err := s.inner.Consume(ctx)
	metrics.ObserveHandoffOp(s.backend, "consume", resultLabel(err, ok), time.Since(start))
	if ok {
		s.logger.Debug().
			Str(xglog.FieldAddress, xglog.MaskAddress(e.SourceAddress)).
			Int64(xglog.FieldPositionMS, e.Position.Milliseconds()).
			Msg("handoff entry consumed")
	}
	return e, ok, err
}

func (s *instrumented) Close() error { return s.inner.Close() }

func resultLabel(err error, ok bool) string {
	switch {
	case err != nil:
		return "error"
	case !ok:
		return "empty"
	default:
		return "ok"
	}
}

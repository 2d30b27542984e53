// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const debounceDuration = 500 * time.Millisecond

// Holder keeps the current configuration and swaps it atomically on reload.
// A failed reload keeps the previous value.
type Holder struct {
	mu      sync.RWMutex
	current AppConfig
	loader  *Loader
	logger  zerolog.Logger

	listenMu  sync.RWMutex
	listeners []chan<- AppConfig
}

// NewHolder creates a holder with an already loaded initial config.
func NewHolder(initial AppConfig, loader *Loader) *Holder {
	return &Holder{
		current: initial,
		loader:  loader,
		logger:  xglog.WithComponent("config"),
	}
}

// Get returns the current configuration.
func (h *Holder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload loads and validates the config and notifies listeners on success.
func (h *Holder) Reload(_ context.Context) error {
	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).Str(xglog.FieldEvent, "config.reload_failed").Msg("keeping previous configuration")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	old := h.current
	h.current = newCfg
	h.mu.Unlock()

	h.logChanges(old, newCfg)
	h.notify(newCfg)
	h.logger.Info().Str(xglog.FieldEvent, "config.reload_success").Msg("configuration reloaded")
	return nil
}

// Subscribe registers ch for reload notifications. Sends never block; a full
// channel misses the update.
func (h *Holder) Subscribe(ch chan<- AppConfig) {
	h.listenMu.Lock()
	defer h.listenMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notify(cfg AppConfig) {
	h.listenMu.RLock()
	defer h.listenMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().Str(xglog.FieldEvent, "config.listener_skip").Msg("listener channel full")
		}
	}
}

// Watch reloads on changes to the config file until ctx is done. It watches
// the parent directory so editors that replace the file are seen. Without a
// config file it blocks until ctx is done.
func (h *Holder) Watch(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().Msg("config watcher disabled (no config file)")
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.logger.Info().Str("path", target).Msg("watching config file for changes")

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDuration, func() {
				_ = h.Reload(ctx)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Error().Err(err).Msg("config watcher error")
		}
	}
}

func (h *Holder) logChanges(old, cur AppConfig) {
	if old.LogLevel != cur.LogLevel {
		h.logger.Info().Str("old", old.LogLevel).Str("new", cur.LogLevel).Msg("log level changed")
	}
	if old.Engine.ConnectTimeout != cur.Engine.ConnectTimeout {
		h.logger.Info().Dur("old", old.Engine.ConnectTimeout).Dur("new", cur.Engine.ConnectTimeout).Msg("connect timeout changed")
	}
	if old.Handoff.Backend != cur.Handoff.Backend {
		h.logger.Warn().Str("old", old.Handoff.Backend).Str("new", cur.Handoff.Backend).Msg("handoff backend change takes effect after restart")
	}
	if old.API.ListenAddr != cur.API.ListenAddr {
		h.logger.Warn().Str("old", old.API.ListenAddr).Str("new", cur.API.ListenAddr).Msg("listen address change takes effect after restart")
	}
}

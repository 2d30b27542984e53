// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder_ReloadSwapsAndNotifies(t *testing.T) {
	path := writeConfig(t, "logLevel: info\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	ch := make(chan AppConfig, 1)
	h.Subscribe(ch)

	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Equal(t, "debug", h.Get().LogLevel)
	select {
	case got := <-ch:
		assert.Equal(t, "debug", got.LogLevel)
	default:
		t.Fatal("listener not notified")
	}
}

func TestHolder_FailedReloadKeepsPrevious(t *testing.T) {
	path := writeConfig(t, "logLevel: info\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)

	require.NoError(t, os.WriteFile(path, []byte("handoff:\n  backend: etcd\n"), 0o600))
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, "memory", h.Get().Handoff.Backend)
}

func TestHolder_FullListenerDoesNotBlock(t *testing.T) {
	loader := NewLoader("", "")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)
	h.Subscribe(make(chan AppConfig))

	require.NoError(t, h.Reload(context.Background()))
}

func TestHolder_WatchReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "logLevel: info\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("logLevel: warn\n"), 0o600))

	assert.Eventually(t, func() bool { return h.Get().LogLevel == "warn" }, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestHolder_WatchWithoutFileBlocksUntilCancel(t *testing.T) {
	h := NewHolder(validConfig(), NewLoader("", ""))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx) }()
	cancel()
	require.NoError(t, <-done)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/profiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader("", "v-test").Load()
	require.NoError(t, err)

	assert.Equal(t, "v-test", cfg.Version)
	assert.Equal(t, EngineSim, cfg.Engine.Kind)
	assert.Equal(t, 10*time.Second, cfg.Engine.ConnectTimeout)
	assert.Equal(t, "memory", cfg.Handoff.Backend)
	assert.Equal(t, PermissionDir, cfg.Permission.Mode)
	assert.Equal(t, filepath.Join(cfg.DataDir, "recordings"), cfg.Recording.Dir)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfig(t, `
logLevel: debug
dataDir: `+dataDir+`
engine:
  connectTimeout: 3s
handoff:
  backend: sqlite
  maxAge: 1m
recording:
  prefix: Clip_
api:
  listenAddr: 127.0.0.1:9000
  rateLimit: 5
profiles:
  overlay:
    networkCaching: 80ms
`)

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, 3*time.Second, cfg.Engine.ConnectTimeout)
	assert.Equal(t, "sqlite", cfg.Handoff.Backend)
	assert.Equal(t, time.Minute, cfg.Handoff.MaxAge)
	assert.Equal(t, "Clip_", cfg.Recording.Prefix)
	assert.Equal(t, ".mp4", cfg.Recording.Extension)
	assert.Equal(t, "127.0.0.1:9000", cfg.API.ListenAddr)
	assert.Equal(t, 5, cfg.API.RateLimit)

	sel := profiles.NewSelector(cfg.Profiles)
	assert.Equal(t, 80*time.Millisecond, sel.Resolve(model.IntentOverlay).NetworkCaching)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := writeConfig(t, "handoff:\n  backend: sqlite\n")
	t.Setenv("PIPVIEW_HANDOFF_BACKEND", "badger")
	t.Setenv("PIPVIEW_CONNECT_TIMEOUT", "7s")
	t.Setenv("PIPVIEW_TELEMETRY_SAMPLING", "0.25")

	l := NewLoader(path, "")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "badger", cfg.Handoff.Backend)
	assert.Equal(t, 7*time.Second, cfg.Engine.ConnectTimeout)
	assert.InDelta(t, 0.25, cfg.Telemetry.SamplingRate, 1e-9)
	assert.Contains(t, l.ConsumedEnvKeys, "PIPVIEW_HANDOFF_BACKEND")
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("PIPVIEW_CONNECT_TIMEOUT", "soon")
	cfg, err := NewLoader("", "").Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Engine.ConnectTimeout)
}

func TestLoad_UnconsumedEnvKeys(t *testing.T) {
	t.Setenv("PIPVIEW_HANDOF_BACKEND", "redis")
	l := NewLoader("", "")
	_, err := l.Load()
	require.NoError(t, err)
	assert.Contains(t, l.UnconsumedEnvKeys(), "PIPVIEW_HANDOF_BACKEND")
}

func TestLoad_StrictUnknownField(t *testing.T) {
	path := writeConfig(t, "engine:\n  kind: sim\n  turbo: true\n")
	_, err := NewLoader(path, "").Load()
	require.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, "logLevel: info\n---\nlogLevel: debug\n")
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoad_RejectsNonYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, EngineSim, cfg.Engine.Kind)
}

func TestLoad_BadFileDuration(t *testing.T) {
	path := writeConfig(t, "handoff:\n  maxAge: forever\n")
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handoff.maxAge")
}

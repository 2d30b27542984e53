// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"testing"

	"github.com/ManuGH/pipview/internal/config"
	"github.com/ManuGH/pipview/internal/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPermissionGate(t *testing.T) {
	cfg := config.AppConfig{}
	cfg.Recording.Dir = t.TempDir()

	cfg.Permission.Mode = config.PermissionGranted
	gate, control := newPermissionGate(cfg)
	assert.True(t, gate.HasStoragePermission())
	require.NotNil(t, control)

	cfg.Permission.Mode = config.PermissionDenied
	gate, _ = newPermissionGate(cfg)
	assert.False(t, gate.HasStoragePermission())

	cfg.Permission.Mode = config.PermissionDir
	gate, control = newPermissionGate(cfg)
	assert.IsType(t, permission.DirGate{}, gate)
	assert.Nil(t, control)
	assert.True(t, gate.HasStoragePermission())
}

func TestNewEngine_Sim(t *testing.T) {
	eng, err := newEngine(config.EngineConfig{Kind: config.EngineSim})
	require.NoError(t, err)
	assert.NotNil(t, eng)

	_, err = newEngine(config.EngineConfig{Kind: "vlc"})
	require.Error(t, err)
}

func TestTracingService(t *testing.T) {
	var cfg config.AppConfig
	assert.Empty(t, tracingService(cfg))
	cfg.Telemetry.Enabled = true
	assert.Equal(t, "pipview-api", tracingService(cfg))
}

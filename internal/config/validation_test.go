// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"testing"

	"github.com/ManuGH/pipview/internal/profiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() AppConfig {
	var cfg AppConfig
	setDefaults(&cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		problem string
	}{
		{"defaults", func(*AppConfig) {}, ""},
		{"unknown backend", func(c *AppConfig) { c.Handoff.Backend = "etcd" }, "handoff.backend"},
		{"zero timeout", func(c *AppConfig) { c.Engine.ConnectTimeout = 0 }, "engine.connectTimeout"},
		{"unknown engine", func(c *AppConfig) { c.Engine.Kind = "vlc" }, "engine.kind"},
		{"empty listen", func(c *AppConfig) { c.API.ListenAddr = "" }, "api.listenAddr"},
		{"listen without port", func(c *AppConfig) { c.API.ListenAddr = "localhost" }, "api.listenAddr"},
		{"redis without addr", func(c *AppConfig) { c.Handoff.Backend = "redis" }, "handoff.redis.addr"},
		{"bad permission mode", func(c *AppConfig) { c.Permission.Mode = "ask" }, "permission.mode"},
		{"bad extension", func(c *AppConfig) { c.Recording.Extension = "mp4" }, "recording.extension"},
		{"bad level", func(c *AppConfig) { c.LogLevel = "loud" }, "logLevel"},
		{"sampling out of range", func(c *AppConfig) { c.Telemetry.SamplingRate = 2 }, "telemetry.samplingRate"},
		{"telemetry exporter", func(c *AppConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.Exporter = "zipkin"
		}, "telemetry.exporter"},
		{"unknown profile", func(c *AppConfig) {
			c.Profiles = map[string]profiles.Override{"turbo": {}}
		}, "profiles.turbo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.problem == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Handoff.Backend = "etcd"
	cfg.Engine.ConnectTimeout = -1

	err := Validate(cfg)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 2)
}

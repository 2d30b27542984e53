// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/ManuGH/pipview/internal/handoff"
	"github.com/ManuGH/pipview/internal/profiles"
	"github.com/rs/zerolog"
)

// ValidationError collects every problem found in one pass.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidConfig }

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Validate checks a resolved configuration.
func Validate(cfg AppConfig) error {
	v := &ValidationError{}

	if cfg.LogLevel != "" {
		if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
			v.add("logLevel %q is not a valid level", cfg.LogLevel)
		}
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		v.add("dataDir must not be empty")
	}

	switch cfg.Engine.Kind {
	case EngineSim, EngineGst:
	default:
		v.add("engine.kind %q is not one of sim, gst", cfg.Engine.Kind)
	}
	if cfg.Engine.ConnectTimeout <= 0 {
		v.add("engine.connectTimeout must be positive")
	}

	if !slices.Contains(handoff.Backends, cfg.Handoff.Backend) {
		v.add("handoff.backend %q is not one of %s", cfg.Handoff.Backend, strings.Join(handoff.Backends, ", "))
	}
	if cfg.Handoff.MaxAge < 0 {
		v.add("handoff.maxAge must not be negative")
	}
	if cfg.Handoff.Backend == handoff.BackendRedis && cfg.Handoff.RedisAddr == "" {
		v.add("handoff.redis.addr is required for the redis backend")
	}

	if cfg.Recording.Extension != "" && !strings.HasPrefix(cfg.Recording.Extension, ".") {
		v.add("recording.extension %q must start with a dot", cfg.Recording.Extension)
	}

	switch cfg.Permission.Mode {
	case PermissionGranted, PermissionDenied, PermissionDir:
	default:
		v.add("permission.mode %q is not one of granted, denied, dir", cfg.Permission.Mode)
	}

	if strings.TrimSpace(cfg.API.ListenAddr) == "" {
		v.add("api.listenAddr must not be empty")
	} else if _, _, err := net.SplitHostPort(cfg.API.ListenAddr); err != nil {
		v.add("api.listenAddr %q: %v", cfg.API.ListenAddr, err)
	}
	if cfg.API.RateLimit < 0 {
		v.add("api.rateLimit must not be negative")
	}
	if cfg.API.RateLimit > 0 && cfg.API.RateWindow <= 0 {
		v.add("api.rateWindow must be positive when rate limiting is on")
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case ExporterGRPC, ExporterHTTP:
		default:
			v.add("telemetry.exporter %q is not one of grpc, http", cfg.Telemetry.Exporter)
		}
		if cfg.Telemetry.Endpoint == "" {
			v.add("telemetry.endpoint is required when telemetry is enabled")
		}
	}
	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		v.add("telemetry.samplingRate must be within [0, 1]")
	}

	for name := range cfg.Profiles {
		if _, ok := profiles.ParseIntent(name); !ok {
			v.add("profiles.%s does not name a known intent", name)
		}
	}

	if len(v.Problems) > 0 {
		slices.Sort(v.Problems)
		return v
	}
	return nil
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

const (
	EngineSim = "sim"
	EngineGst = "gst"

	PermissionGranted = "granted"
	PermissionDenied  = "denied"
	PermissionDir     = "dir"

	ExporterGRPC = "grpc"
	ExporterHTTP = "http"
)

const (
	defaultDataDir        = "/var/lib/pipview"
	defaultConnectTimeout = 10 * time.Second
	defaultHandoffMaxAge  = 30 * time.Second
	defaultListenAddr     = ":8089"
	defaultRateLimit      = 60
	defaultRateWindow     = time.Minute
	defaultShutdown       = 10 * time.Second
)

func setDefaults(cfg *AppConfig) {
	cfg.LogLevel = "info"
	cfg.DataDir = defaultDataDir
	cfg.Engine = EngineConfig{
		Kind:           EngineSim,
		ConnectTimeout: defaultConnectTimeout,
		AutoPlay:       true,
	}
	cfg.Handoff = HandoffConfig{
		Backend:  "memory",
		MaxAge:   defaultHandoffMaxAge,
		RedisKey: "pipview:handoff",
	}
	cfg.Recording = RecordingConfig{
		Prefix:    "Recording_",
		Extension: ".mp4",
	}
	cfg.Permission = PermissionConfig{Mode: PermissionDir}
	cfg.API = APIConfig{
		ListenAddr:      defaultListenAddr,
		RateLimit:       defaultRateLimit,
		RateWindow:      defaultRateWindow,
		ShutdownTimeout: defaultShutdown,
	}
	cfg.Telemetry = TelemetryConfig{
		Exporter:     ExporterGRPC,
		Endpoint:     "localhost:4317",
		SamplingRate: 1.0,
	}
}

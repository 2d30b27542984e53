// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"time"

	"github.com/ManuGH/pipview/internal/profiles"
)

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	Version  string
	LogLevel string
	DataDir  string

	Engine     EngineConfig
	Handoff    HandoffConfig
	Recording  RecordingConfig
	Permission PermissionConfig
	API        APIConfig
	Telemetry  TelemetryConfig

	// Profiles holds per-intent overrides keyed by profile or intent name.
	Profiles map[string]profiles.Override
}

// EngineConfig selects the playback engine.
type EngineConfig struct {
	Kind           string
	ConnectTimeout time.Duration
	AutoPlay       bool
}

// HandoffConfig selects and configures the handoff store backend.
type HandoffConfig struct {
	Backend       string
	Path          string
	MaxAge        time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

// RecordingConfig controls where recordings land.
type RecordingConfig struct {
	Dir       string
	Prefix    string
	Extension string
}

// PermissionConfig controls the storage permission gate.
type PermissionConfig struct {
	Mode string
}

// APIConfig controls the control API.
type APIConfig struct {
	ListenAddr      string
	RateLimit       int
	RateWindow      time.Duration
	ShutdownTimeout time.Duration
}

// TelemetryConfig mirrors telemetry.Config.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// FileConfig is the on-disk YAML shape. Pointers distinguish "unset" from zero.
type FileConfig struct {
	LogLevel   string                       `yaml:"logLevel,omitempty"`
	DataDir    string                       `yaml:"dataDir,omitempty"`
	Engine     *EngineFile                  `yaml:"engine,omitempty"`
	Handoff    *HandoffFile                 `yaml:"handoff,omitempty"`
	Recording  *RecordingFile               `yaml:"recording,omitempty"`
	Permission *PermissionFile              `yaml:"permission,omitempty"`
	API        *APIFile                     `yaml:"api,omitempty"`
	Telemetry  *TelemetryFile               `yaml:"telemetry,omitempty"`
	Profiles   map[string]profiles.Override `yaml:"profiles,omitempty"`
}

type EngineFile struct {
	Kind           string `yaml:"kind,omitempty"`
	ConnectTimeout string `yaml:"connectTimeout,omitempty"`
	AutoPlay       *bool  `yaml:"autoPlay,omitempty"`
}

type HandoffFile struct {
	Backend string     `yaml:"backend,omitempty"`
	Path    string     `yaml:"path,omitempty"`
	MaxAge  string     `yaml:"maxAge,omitempty"`
	Redis   *RedisFile `yaml:"redis,omitempty"`
}

type RedisFile struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       *int   `yaml:"db,omitempty"`
	Key      string `yaml:"key,omitempty"`
}

type RecordingFile struct {
	Dir       string `yaml:"dir,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Extension string `yaml:"extension,omitempty"`
}

type PermissionFile struct {
	Mode string `yaml:"mode,omitempty"`
}

type APIFile struct {
	ListenAddr      string `yaml:"listenAddr,omitempty"`
	RateLimit       *int   `yaml:"rateLimit,omitempty"`
	RateWindow      string `yaml:"rateWindow,omitempty"`
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
}

type TelemetryFile struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}

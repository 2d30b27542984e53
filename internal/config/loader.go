// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader. An empty configPath means ENV and defaults only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path the loader reads.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, def string) string {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, def)
}

func (l *Loader) envInt(key string, def int) int {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, def)
}

// Load resolves defaults, then the file, then ENV, then validates.
func (l *Loader) Load() (AppConfig, error) {
	cfg := AppConfig{}
	setDefaults(&cfg)

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	if cfg.Recording.Dir == "" {
		cfg.Recording.Dir = filepath.Join(cfg.DataDir, "recordings")
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// UnconsumedEnvKeys lists PIPVIEW_ variables in the environment that no
// loader read, usually typos.
func (l *Loader) UnconsumedEnvKeys() []string {
	var out []string
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if _, ok := l.ConsumedEnvKeys[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// loadFile parses YAML strictly: unknown fields, multiple documents and
// trailing content are errors.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- the operator chooses the config path
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func parseFileDuration(field, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if e := f.Engine; e != nil {
		if e.Kind != "" {
			cfg.Engine.Kind = e.Kind
		}
		if e.ConnectTimeout != "" {
			d, err := parseFileDuration("engine.connectTimeout", e.ConnectTimeout)
			if err != nil {
				return err
			}
			cfg.Engine.ConnectTimeout = d
		}
		if e.AutoPlay != nil {
			cfg.Engine.AutoPlay = *e.AutoPlay
		}
	}
	if h := f.Handoff; h != nil {
		if h.Backend != "" {
			cfg.Handoff.Backend = h.Backend
		}
		if h.Path != "" {
			cfg.Handoff.Path = h.Path
		}
		if h.MaxAge != "" {
			d, err := parseFileDuration("handoff.maxAge", h.MaxAge)
			if err != nil {
				return err
			}
			cfg.Handoff.MaxAge = d
		}
		if r := h.Redis; r != nil {
			if r.Addr != "" {
				cfg.Handoff.RedisAddr = r.Addr
			}
			if r.Password != "" {
				cfg.Handoff.RedisPassword = r.Password
			}
			if r.DB != nil {
				cfg.Handoff.RedisDB = *r.DB
			}
			if r.Key != "" {
				cfg.Handoff.RedisKey = r.Key
			}
		}
	}
	if r := f.Recording; r != nil {
		if r.Dir != "" {
			cfg.Recording.Dir = r.Dir
		}
		if r.Prefix != "" {
			cfg.Recording.Prefix = r.Prefix
		}
		if r.Extension != "" {
			cfg.Recording.Extension = r.Extension
		}
	}
	if p := f.Permission; p != nil && p.Mode != "" {
		cfg.Permission.Mode = p.Mode
	}
	if a := f.API; a != nil {
		if a.ListenAddr != "" {
			cfg.API.ListenAddr = a.ListenAddr
		}
		if a.RateLimit != nil {
			cfg.API.RateLimit = *a.RateLimit
		}
		if a.RateWindow != "" {
			d, err := parseFileDuration("api.rateWindow", a.RateWindow)
			if err != nil {
				return err
			}
			cfg.API.RateWindow = d
		}
		if a.ShutdownTimeout != "" {
			d, err := parseFileDuration("api.shutdownTimeout", a.ShutdownTimeout)
			if err != nil {
				return err
			}
			cfg.API.ShutdownTimeout = d
		}
	}
	if t := f.Telemetry; t != nil {
		if t.Enabled != nil {
			cfg.Telemetry.Enabled = *t.Enabled
		}
		if t.Exporter != "" {
			cfg.Telemetry.Exporter = t.Exporter
		}
		if t.Endpoint != "" {
			cfg.Telemetry.Endpoint = t.Endpoint
		}
		if t.SamplingRate != nil {
			cfg.Telemetry.SamplingRate = *t.SamplingRate
		}
	}
	if len(f.Profiles) > 0 {
		cfg.Profiles = f.Profiles
	}
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)
	cfg.DataDir = l.envString("DATA_DIR", cfg.DataDir)

	cfg.Engine.Kind = l.envString("ENGINE", cfg.Engine.Kind)
	cfg.Engine.ConnectTimeout = l.envDuration("CONNECT_TIMEOUT", cfg.Engine.ConnectTimeout)
	cfg.Engine.AutoPlay = l.envBool("ENGINE_AUTOPLAY", cfg.Engine.AutoPlay)

	cfg.Handoff.Backend = l.envString("HANDOFF_BACKEND", cfg.Handoff.Backend)
	cfg.Handoff.Path = l.envString("HANDOFF_PATH", cfg.Handoff.Path)
	cfg.Handoff.MaxAge = l.envDuration("HANDOFF_MAX_AGE", cfg.Handoff.MaxAge)
	cfg.Handoff.RedisAddr = l.envString("HANDOFF_REDIS_ADDR", cfg.Handoff.RedisAddr)
	cfg.Handoff.RedisPassword = l.envString("HANDOFF_REDIS_PASSWORD", cfg.Handoff.RedisPassword)
	cfg.Handoff.RedisDB = l.envInt("HANDOFF_REDIS_DB", cfg.Handoff.RedisDB)
	cfg.Handoff.RedisKey = l.envString("HANDOFF_REDIS_KEY", cfg.Handoff.RedisKey)

	cfg.Recording.Dir = l.envString("RECORDING_DIR", cfg.Recording.Dir)
	cfg.Recording.Prefix = l.envString("RECORDING_PREFIX", cfg.Recording.Prefix)
	cfg.Recording.Extension = l.envString("RECORDING_EXT", cfg.Recording.Extension)

	cfg.Permission.Mode = l.envString("PERMISSION_MODE", cfg.Permission.Mode)

	cfg.API.ListenAddr = l.envString("LISTEN", cfg.API.ListenAddr)
	cfg.API.RateLimit = l.envInt("RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.RateWindow = l.envDuration("RATE_WINDOW", cfg.API.RateWindow)
	cfg.API.ShutdownTimeout = l.envDuration("SHUTDOWN_TIMEOUT", cfg.API.ShutdownTimeout)

	cfg.Telemetry.Enabled = l.envBool("TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("TELEMETRY_SAMPLING", cfg.Telemetry.SamplingRate)
}

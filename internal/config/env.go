// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/rs/zerolog"
)

// EnvPrefix prefixes every environment key.
const EnvPrefix = "PIPVIEW_"

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "password") || strings.Contains(k, "token") || strings.Contains(k, "secret")
}

// ParseString reads a string from the environment or returns def. An empty
// variable counts as unset.
func ParseString(key, def string) string {
	return parseStringWithLogger(xglog.WithComponent("config"), key, def)
}

func parseStringWithLogger(logger zerolog.Logger, key, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitiveKey(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", v)
	}
	ev.Msg("using environment variable")
	return v
}

// ParseInt reads an integer, falling back to def on parse errors.
func ParseInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		logger := xglog.WithComponent("config")
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", def).
			Msg("invalid integer in environment variable, using default")
		return def
	}
	return i
}

// ParseDuration reads a Go duration such as "5s", falling back to def on parse errors.
func ParseDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger := xglog.WithComponent("config")
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Dur("default", def).
			Msg("invalid duration in environment variable, using default")
		return def
	}
	return d
}

// ParseBool accepts true/false, 1/0 and yes/no (case-insensitive).
func ParseBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	logger := xglog.WithComponent("config")
	logger.Warn().
		Str("key", key).
		Str("value", v).
		Bool("default", def).
		Msg("invalid boolean in environment variable, using default")
	return def
}

// ParseFloat reads a float, falling back to def on parse errors.
func ParseFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger := xglog.WithComponent("config")
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Float64("default", def).
			Msg("invalid float in environment variable, using default")
		return def
	}
	return f
}

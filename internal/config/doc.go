// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads pipview configuration with precedence
// ENV > YAML file > defaults and hot-reloads it on file change.
package config

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build !gst

package main

import (
	"fmt"

	"github.com/ManuGH/pipview/internal/config"
	"github.com/ManuGH/pipview/internal/domain/session/ports"
	"github.com/ManuGH/pipview/internal/engine/sim"
)

func newEngine(cfg config.EngineConfig) (ports.Engine, error) {
	switch cfg.Kind {
	case config.EngineSim:
		return sim.New(sim.WithAutoPlay(cfg.AutoPlay)), nil
	case config.EngineGst:
		return nil, fmt.Errorf("engine %q requires a build with -tags gst", cfg.Kind)
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Kind)
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import "github.com/ManuGH/pipview/internal/domain/session/model"

// ScaleMode tells the engine how to fit frames into a surface.
type ScaleMode string

const (
	ScaleBestFit   ScaleMode = "best_fit"
	ScaleFitScreen ScaleMode = "fit_screen"
)

// Surface is a renderable target supplied by the surface owner.
type Surface interface {
	ID() string
	Kind() model.SurfaceKind
	// AspectRatio is width/height numerator and denominator, e.g. 16:9.
	AspectRatio() (int, int)
	Scale() ScaleMode
}

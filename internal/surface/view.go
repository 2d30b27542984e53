// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package surface

import (
	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/domain/session/ports"
	"github.com/google/uuid"
)

// View is the render target handed to the engine.
type View struct {
	id     string
	kind   model.SurfaceKind
	aspect [2]int
	scale  ports.ScaleMode
}

// NewView returns the view for kind. The overlay is a fixed 16:9 window the
// engine must fill; the primary surface letterboxes.
func NewView(kind model.SurfaceKind) View {
	v := View{
		id:     string(kind) + "-" + uuid.NewString()[:8],
		kind:   kind,
		aspect: [2]int{16, 9},
		scale:  ports.ScaleBestFit,
	}
	if kind == model.SurfaceOverlay {
		v.scale = ports.ScaleFitScreen
	}
	return v
}

func (v View) ID() string              { return v.id }
func (v View) Kind() model.SurfaceKind { return v.kind }
func (v View) AspectRatio() (int, int) { return v.aspect[0], v.aspect[1] }
func (v View) Scale() ports.ScaleMode  { return v.scale }

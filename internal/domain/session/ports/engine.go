// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"context"
	"time"

	"github.com/ManuGH/pipview/internal/profiles"
)

// Handle is an opaque token for one engine connection/decode pipeline.
// Each handle returned by Open must be released exactly once.
type Handle string

// EngineEventKind enumerates the coarse events an engine reports.
type EngineEventKind int

const (
	EventPlaying EngineEventKind = iota + 1
	EventBuffering
	EventEncounteredError
	EventEndReached
)

func (k EngineEventKind) String() string {
	switch k {
	case EventPlaying:
		return "playing"
	case EventBuffering:
		return "buffering"
	case EventEncounteredError:
		return "encountered_error"
	case EventEndReached:
		return "end_reached"
	default:
		return "unknown"
	}
}

// EngineEvent is delivered asynchronously from the engine's own worker context.
type EngineEvent struct {
	Handle  Handle
	Kind    EngineEventKind
	Percent float64 // Buffering only
	Reason  string  // EncounteredError only
	At      time.Time
}

// Engine is the opaque media decode/transport capability. Implementations own
// the wire protocol; the session layer only drives this contract.
type Engine interface {
	// Open creates a new handle bound to address. No frames flow until Play.
	Open(ctx context.Context, address string) (Handle, error)
	Configure(h Handle, p profiles.ConnectionProfile) error
	AttachSurface(h Handle, s Surface) error
	DetachSurface(h Handle) error
	Play(h Handle) error
	Stop(h Handle) error
	Seek(h Handle, position time.Duration) error
	// Position reports the playback position since engine start.
	Position(h Handle) (time.Duration, error)
	// SetDualOutput duplicates the stream to target while rendering continues.
	// An empty target restores single-output rendering.
	SetDualOutput(h Handle, target string) error
	// Release tears the handle down synchronously and closes its event channel.
	Release(h Handle) error
	// Events returns the per-handle event stream. It is closed by Release.
	Events(h Handle) <-chan EngineEvent
}

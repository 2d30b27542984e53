// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sim

import (
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/ports"
	"github.com/ManuGH/pipview/internal/profiles"
)

// Emit injects an event for h. It reports false when h is released or the
// buffer is full.
func (e *Engine) Emit(h ports.Handle, ev ports.EngineEvent) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.handles[h]
	if !ok {
		return false
	}
	return e.emitLocked(h, st, ev)
}

// EmitPlaying is shorthand for a Playing event.
func (e *Engine) EmitPlaying(h ports.Handle) bool {
	return e.Emit(h, ports.EngineEvent{Kind: ports.EventPlaying})
}

// EmitError is shorthand for an EncounteredError event.
func (e *Engine) EmitError(h ports.Handle, reason string) bool {
	return e.Emit(h, ports.EngineEvent{Kind: ports.EventEncounteredError, Reason: reason})
}

// EmitEndReached is shorthand for an EndReached event.
func (e *Engine) EmitEndReached(h ports.Handle) bool {
	return e.Emit(h, ports.EngineEvent{Kind: ports.EventEndReached})
}

// EmitBuffering is shorthand for a Buffering event.
func (e *Engine) EmitBuffering(h ports.Handle, pct float64) bool {
	return e.Emit(h, ports.EngineEvent{Kind: ports.EventBuffering, Percent: pct})
}

// SetPosition pins the playback position of h; it keeps advancing while playing.
func (e *Engine) SetPosition(h ports.Handle, pos time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.handles[h]; ok {
		st.base = pos
		st.since = e.now()
	}
}

// FailDualOutput makes later SetDualOutput calls fail with err (nil clears).
func (e *Engine) FailDualOutput(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dualErr = err
}

// Opens is the number of successful Open calls.
func (e *Engine) Opens() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opens
}

// Releases is the number of successful Release calls.
func (e *Engine) Releases() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.releases
}

// Live is the number of handles opened and not yet released.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handles)
}

// Handles lists live handles.
func (e *Engine) Handles() []ports.Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ports.Handle, 0, len(e.handles))
	for h := range e.handles {
		out = append(out, h)
	}
	return out
}

// Snapshot is the observable state of one live handle.
type Snapshot struct {
	Address    string
	Profile    profiles.ConnectionProfile
	Configures int
	SurfaceID  string
	Playing    bool
	DualTarget string
	DualCalls  int
}

// Inspect returns the state of h, or false if it is not live.
func (e *Engine) Inspect(h ports.Handle) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.handles[h]
	if !ok {
		return Snapshot{}, false
	}
	snap := Snapshot{
		Address:    st.address,
		Profile:    st.profile,
		Configures: st.configures,
		Playing:    st.playing,
		DualTarget: st.dualTarget,
		DualCalls:  st.dualCalls,
	}
	if st.surface != nil {
		snap.SurfaceID = st.surface.ID()
	}
	return snap, true
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package viewer plays the host environment: it keeps exactly one active
// surface owner and performs primary/overlay transitions by destroying the
// departing owner and constructing the arriving one.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ManuGH/pipview/internal/domain/session/model"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/ManuGH/pipview/internal/surface"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyInOverlay is returned by EnterOverlay while the overlay is active.
	ErrAlreadyInOverlay = errors.New("viewer: already in overlay")
	// ErrNotInOverlay is returned by ExitOverlay while the primary surface is active.
	ErrNotInOverlay = errors.New("viewer: not in overlay")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("viewer: closed")
)

// Viewer owns the active surface owner.
type Viewer struct {
	deps   surface.Deps
	logger zerolog.Logger

	mu     sync.Mutex
	active *surface.Owner
	closed bool
}

// New creates a viewer with an idle primary owner.
func New(deps surface.Deps) (*Viewer, error) {
	primary, err := surface.NewOwner(model.SurfacePrimary, deps)
	if err != nil {
		return nil, err
	}
	return &Viewer{
		deps:   deps,
		logger: xglog.WithComponent("viewer"),
		active: primary,
	}, nil
}

func (v *Viewer) current() (*surface.Owner, error) {
	if v.closed {
		return nil, ErrClosed
	}
	return v.active, nil
}

// Play starts address on the active surface.
func (v *Viewer) Play(ctx context.Context, address string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, err := v.current()
	if err != nil {
		return err
	}
	return o.Start(ctx, address)
}

// Stop ends playback on the active surface without a handoff.
func (v *Viewer) Stop(ctx context.Context) (model.SessionSnapshot, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, err := v.current()
	if err != nil {
		return model.SessionSnapshot{}, err
	}
	return o.Stop(ctx)
}

// EnterOverlay moves the session from the primary surface to the overlay.
func (v *Viewer) EnterOverlay(ctx context.Context) (model.SessionSnapshot, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, err := v.current()
	if err != nil {
		return model.SessionSnapshot{}, err
	}
	if o.Kind() == model.SurfaceOverlay {
		return model.SessionSnapshot{}, ErrAlreadyInOverlay
	}
	snap, err := o.OnEnterOverlay(ctx)
	if err != nil {
		return snap, fmt.Errorf("enter overlay: %w", err)
	}
	return snap, v.switchTo(ctx, model.SurfaceOverlay, snap)
}

// ExitOverlay moves the session from the overlay back to the primary surface.
func (v *Viewer) ExitOverlay(ctx context.Context) (model.SessionSnapshot, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, err := v.current()
	if err != nil {
		return model.SessionSnapshot{}, err
	}
	if o.Kind() != model.SurfaceOverlay {
		return model.SessionSnapshot{}, ErrNotInOverlay
	}
	snap, err := o.OnExitOverlay(ctx)
	if err != nil {
		return snap, fmt.Errorf("exit overlay: %w", err)
	}
	return snap, v.switchTo(ctx, model.SurfacePrimary, snap)
}

// switchTo destroys the departing owner and starts the arriving one. The
// arriving controller consumes the handoff entry the departing one published.
func (v *Viewer) switchTo(ctx context.Context, kind model.SurfaceKind, snap model.SessionSnapshot) error {
	departing := v.active
	if err := departing.OnOwnerDestroyed(); err != nil {
		v.logger.Warn().Err(err).Str(xglog.FieldSurface, string(departing.Kind())).Msg("departing owner teardown reported an error")
	}

	arriving, err := surface.NewOwner(kind, v.deps)
	if err != nil {
		return err
	}
	v.active = arriving
	v.logger.Info().
		Str("from", string(departing.Kind())).
		Str("to", string(kind)).
		Bool("resume", !snap.IsEmpty()).
		Msg("surface transition")

	if snap.IsEmpty() {
		return nil
	}
	return arriving.Start(ctx, "")
}

// StartRecording records on the active surface.
func (v *Viewer) StartRecording(ctx context.Context, target string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, err := v.current()
	if err != nil {
		return err
	}
	return o.StartRecording(ctx, target)
}

// StopRecording stops recording on the active surface.
func (v *Viewer) StopRecording(ctx context.Context) (model.ArtifactHandle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, err := v.current()
	if err != nil {
		return model.ArtifactHandle{}, err
	}
	return o.StopRecording(ctx)
}

// Resume forwards a host resume signal to the active owner.
func (v *Viewer) Resume(ctx context.Context, pending *model.HandoffEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, err := v.current()
	if err != nil {
		return err
	}
	return o.OnOwnerResumed(ctx, pending)
}

// WaitPlaying waits on the active owner. The viewer lock is not held while waiting.
func (v *Viewer) WaitPlaying(ctx context.Context) error {
	v.mu.Lock()
	o, err := v.current()
	v.mu.Unlock()
	if err != nil {
		return err
	}
	return o.WaitPlaying(ctx)
}

// Status describes the active surface.
type Status struct {
	Surface model.SurfaceKind `json:"surface"`
	Session model.Status      `json:"session"`
}

// Status reports the active surface and its session.
func (v *Viewer) Status() Status {
	v.mu.Lock()
	o := v.active
	v.mu.Unlock()
	return Status{Surface: o.Kind(), Session: o.Status()}
}

// Close destroys the active owner.
func (v *Viewer) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	return v.active.OnOwnerDestroyed()
}

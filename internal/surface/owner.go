// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package surface implements the two surface owners (primary and overlay).
// An owner holds one session controller for its whole lifetime and turns host
// lifecycle signals into controller calls.
package surface

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/lifecycle"
	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/domain/session/ports"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/ManuGH/pipview/internal/profiles"
	"github.com/ManuGH/pipview/internal/session"
	"github.com/rs/zerolog"
)

// ErrDestroyed is returned by every signal after OnOwnerDestroyed.
var ErrDestroyed = errors.New("surface owner destroyed")

// settleTimeout bounds how long a transition waits for a Connecting session
// to settle before snapshotting it.
const settleTimeout = 5 * time.Second

// Deps are shared by every owner the host creates.
type Deps struct {
	Engine     ports.Engine
	Handoff    ports.HandoffStore
	Permission ports.PermissionGate
	Namer      ports.TargetNamer
	Sink       ports.ArtifactSink
	Profiles   profiles.Selector
	Session    session.Options
}

// Owner is one surface and its session controller.
type Owner struct {
	kind   model.SurfaceKind
	view   View
	ctrl   *session.Controller
	logger zerolog.Logger

	mu          sync.Mutex
	destroyed   bool
	lastAddress string
}

// NewOwner creates the owner for kind together with its controller.
func NewOwner(kind model.SurfaceKind, deps Deps) (*Owner, error) {
	view := NewView(kind)
	ctrl, err := session.New(session.Deps{
		Engine:     deps.Engine,
		Surface:    view,
		Handoff:    deps.Handoff,
		Permission: deps.Permission,
		Namer:      deps.Namer,
		Sink:       deps.Sink,
		Profiles:   deps.Profiles,
	}, deps.Session)
	if err != nil {
		return nil, fmt.Errorf("create %s owner: %w", kind, err)
	}
	return &Owner{
		kind: kind,
		view: view,
		ctrl: ctrl,
		logger: xglog.WithComponent("surface").With().
			Str(xglog.FieldSurface, string(kind)).
			Str(xglog.FieldSessionID, ctrl.ID()).
			Logger(),
	}, nil
}

// Kind reports which surface this owner renders to.
func (o *Owner) Kind() model.SurfaceKind { return o.kind }

// View is the owner's render target.
func (o *Owner) View() View { return o.view }

func (o *Owner) intent() model.Intent {
	if o.kind == model.SurfaceOverlay {
		return model.IntentOverlay
	}
	return model.IntentInteractive
}

func (o *Owner) guard() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.destroyed {
		return ErrDestroyed
	}
	return nil
}

// Start begins playback of address. An empty address resumes the pending
// handoff entry, if any.
func (o *Owner) Start(ctx context.Context, address string) error {
	if err := o.guard(); err != nil {
		return err
	}
	if err := o.ctrl.Activate(ctx, address, o.intent(), 0); err != nil {
		return err
	}
	if address == "" {
		address = o.ctrl.Status().SourceAddress
	}
	o.mu.Lock()
	o.lastAddress = address
	o.mu.Unlock()
	return nil
}

// OnEnterOverlay is delivered to the primary owner when the host shrinks into
// the overlay. It publishes the session for the overlay owner.
func (o *Owner) OnEnterOverlay(ctx context.Context) (model.SessionSnapshot, error) {
	if o.kind != model.SurfacePrimary {
		return model.SessionSnapshot{}, fmt.Errorf("enter overlay delivered to %s owner", o.kind)
	}
	return o.handOff(ctx)
}

// OnExitOverlay is delivered to the overlay owner when the host returns to
// full screen. It publishes the session back for the primary owner.
func (o *Owner) OnExitOverlay(ctx context.Context) (model.SessionSnapshot, error) {
	if o.kind != model.SurfaceOverlay {
		return model.SessionSnapshot{}, fmt.Errorf("exit overlay delivered to %s owner", o.kind)
	}
	return o.handOff(ctx)
}

// handOff snapshots into the handoff store and releases the handle. A session
// still Connecting is allowed to settle first; activation cannot be cancelled.
func (o *Owner) handOff(ctx context.Context) (model.SessionSnapshot, error) {
	if err := o.guard(); err != nil {
		return model.SessionSnapshot{}, err
	}
	snap, err := o.ctrl.Deactivate(ctx, true)
	if !errors.Is(err, lifecycle.ErrActivationInFlight) {
		return snap, err
	}

	o.logger.Debug().Msg("waiting for connecting session to settle before handoff")
	waitCtx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	if werr := o.ctrl.WaitPlaying(waitCtx); werr != nil {
		if errors.Is(werr, context.DeadlineExceeded) || errors.Is(werr, context.Canceled) {
			return model.SessionSnapshot{}, fmt.Errorf("handoff: session did not settle: %w", werr)
		}
		// Activation failed; the controller is already Idle.
		return model.SessionSnapshot{}, nil
	}
	return o.ctrl.Deactivate(ctx, true)
}

// OnOwnerDestroyed releases the engine handle in whatever phase and stops the
// controller. It is safe to call more than once.
func (o *Owner) OnOwnerDestroyed() error {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return nil
	}
	o.destroyed = true
	o.mu.Unlock()

	err := o.ctrl.Close()
	if errors.Is(err, lifecycle.ErrClosed) {
		err = nil
	}
	o.logger.Debug().Msg("surface owner destroyed")
	return err
}

// OnOwnerResumed restarts playback when the owner comes back to the
// foreground idle. pending, when given, is resumed at its saved position and
// wins over any entry in the handoff store; otherwise the last address is
// restarted. A live session is left alone.
func (o *Owner) OnOwnerResumed(ctx context.Context, pending *model.HandoffEntry) error {
	if err := o.guard(); err != nil {
		return err
	}
	if st := o.ctrl.Status(); st.Phase != model.PhaseIdle {
		return nil
	}

	o.mu.Lock()
	last := o.lastAddress
	o.mu.Unlock()

	switch {
	case pending != nil && !pending.IsZero():
		if err := o.ctrl.ActivateFrom(ctx, *pending, o.intent()); err != nil {
			return err
		}
		o.mu.Lock()
		o.lastAddress = pending.SourceAddress
		o.mu.Unlock()
		return nil
	case last != "":
		return o.ctrl.Activate(ctx, last, o.intent(), 0)
	default:
		return nil
	}
}

// StartRecording forwards to the controller.
func (o *Owner) StartRecording(ctx context.Context, target string) error {
	if err := o.guard(); err != nil {
		return err
	}
	return o.ctrl.StartRecording(ctx, target)
}

// StopRecording forwards to the controller.
func (o *Owner) StopRecording(ctx context.Context) (model.ArtifactHandle, error) {
	if err := o.guard(); err != nil {
		return model.ArtifactHandle{}, err
	}
	return o.ctrl.StopRecording(ctx)
}

// Stop ends playback without publishing a handoff entry.
func (o *Owner) Stop(ctx context.Context) (model.SessionSnapshot, error) {
	if err := o.guard(); err != nil {
		return model.SessionSnapshot{}, err
	}
	return o.ctrl.Deactivate(ctx, false)
}

// WaitPlaying forwards to the controller.
func (o *Owner) WaitPlaying(ctx context.Context) error {
	return o.ctrl.WaitPlaying(ctx)
}

// Status forwards to the controller.
func (o *Owner) Status() model.Status {
	return o.ctrl.Status()
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package session implements the session controller: the single-owner state
// machine that holds one engine handle, switches connection profiles, drives
// recording and publishes/consumes the handoff entry.
//
// All state is owned by one goroutine. Public methods marshal closures onto
// it and engine events are forwarded into the same loop, so no two goroutines
// ever mutate a controller's state.
package session

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
	"github.com/ManuGH/pipview/internal/metrics"
	"github.com/ManuGH/pipview/internal/profiles"
	"github.com/ManuGH/pipview/internal/recording"
	"github.com/ManuGH/pipview/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Deps are the collaborators a controller drives. Engine and Surface are required.
type Deps struct {
	Engine     ports.Engine
	Surface    ports.Surface
	Handoff    ports.HandoffStore   // nil disables handoff
	Permission ports.PermissionGate // nil denies recording
	Namer      ports.TargetNamer    // used when StartRecording gets no target
	Sink       ports.ArtifactSink   // receives finished recordings
	Profiles   profiles.Selector
}

// Options tune a controller.
type Options struct {
	// ConnectTimeout bounds Connecting; zero disables the watchdog.
	ConnectTimeout time.Duration
	Now            func() time.Time
	// OnPhaseChange runs on the owner goroutine. It must not block or call
	// back into the controller.
	OnPhaseChange func(model.PhaseChange)
}

// Controller is one session's state machine.
type Controller struct {
	id     string
	deps   Deps
	opts   Options
	logger zerolog.Logger
	tracer trace.Tracer

	cmds      chan func()
	inbox     chan ports.EngineEvent
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// Owned by the run goroutine.
	st       model.SessionState
	handle   ports.Handle
	profile  profiles.ConnectionProfile
	rec      *recording.Controller
	fwdStop  chan struct{}
	fwdWG    sync.WaitGroup
	watchdog *time.Timer
	waiters  []chan error
	lastErr  error
	closed   bool
}

// New starts a controller's owner goroutine. Close must be called to stop it.
func New(deps Deps, opts Options) (*Controller, error) {
	if deps.Engine == nil {
		return nil, errors.New("session: engine is required")
	}
	if deps.Surface == nil {
		return nil, errors.New("session: surface is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	id := uuid.NewString()
	c := &Controller{
		id:   id,
		deps: deps,
		opts: opts,
		logger: xglog.WithComponent("session").With().
			Str(xglog.FieldSessionID, id).
			Str(xglog.FieldSurface, string(deps.Surface.Kind())).
			Logger(),
		tracer: telemetry.Tracer("pipview/session"),
		cmds:   make(chan func()),
		inbox:  make(chan ports.EngineEvent),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		st:     model.SessionState{Phase: model.PhaseIdle, UpdatedAt: opts.Now()},
		rec:    recording.NewController(opts.Now),
	}
	go c.run()
	return c, nil
}

// ID is the controller's session id.
func (c *Controller) ID() string { return c.id }

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case fn := <-c.cmds:
			fn()
		case ev := <-c.inbox:
			c.onEngineEvent(ev)
		case <-c.quit:
			return
		}
	}
}

// do runs fn on the owner goroutine and waits for it.
func (c *Controller) do(fn func()) error {
	reply := make(chan struct{})
	select {
	case c.cmds <- func() { defer close(reply); fn() }:
	case <-c.done:
		return lifecycle.ErrClosed
	}
	<-reply
	return nil
}

// post queues fn without waiting; it is dropped once the controller is gone.
func (c *Controller) post(fn func()) {
	select {
	case c.cmds <- fn:
	case <-c.done:
	}
}

// Close destroys the controller: any held handle is released in whatever
// phase, pending waiters fail with ErrClosed and the owner goroutine exits.
// Later calls return ErrClosed.
func (c *Controller) Close() error {
	err := lifecycle.ErrClosed
	c.closeOnce.Do(func() {
		var releaseErr error
		err = c.do(func() { releaseErr = c.destroy() })
		close(c.quit)
		<-c.done
		if err == nil {
			err = releaseErr
		}
	})
	return err
}

func (c *Controller) destroy() error {
	c.closed = true
	c.endRecording(context.Background())
	var err error
	if c.handle != "" {
		err = c.releaseHandle("destroy")
		c.transition(lifecycle.Event{Kind: lifecycle.EvDestroy})
	}
	c.notifyWaiters(lifecycle.ErrClosed)
	c.logger.Debug().Str(xglog.FieldEvent, "session.closed").Msg("session controller closed")
	return err
}

// transition applies ev through the lifecycle tables and reports the change.
func (c *Controller) transition(ev lifecycle.Event) bool {
	from := c.st.Phase
	tr, err := lifecycle.Dispatch(&c.st, ev, c.opts.Now())
	if err != nil {
		c.logger.Error().Err(err).
			Str(xglog.FieldPhase, string(from)).
			Str(xglog.FieldEvent, ev.Kind.String()).
			Msg("rejected lifecycle transition")
		return false
	}

	metrics.RecordTransition(string(from), string(tr.To), string(tr.Reason))
	logEvt := c.logger.Info()
	if tr.To == model.PhaseError {
		logEvt = c.logger.Warn()
	}
	logEvt.
		Str(xglog.FieldOldPhase, string(from)).
		Str(xglog.FieldNewPhase, string(tr.To)).
		Str(xglog.FieldReason, string(tr.Reason)).
		Str(xglog.FieldEvent, ev.Kind.String()).
		Msg("session phase changed")

	if c.opts.OnPhaseChange != nil {
		change := model.PhaseChange{
			SessionID: c.id,
			From:      from,
			To:        tr.To,
			Reason:    tr.Reason,
			At:        c.st.UpdatedAt,
		}
		if lifecycle.ReasonErrorClass(tr.Reason) != nil {
			change.Err = c.lastErr
		}
		c.opts.OnPhaseChange(change)
	}
	return true
}

func (c *Controller) illegal(ev lifecycle.EventKind) error {
	return &lifecycle.IllegalTransitionError{
		From:   c.st.Phase,
		Event:  ev,
		Reason: lifecycle.ForbiddenTransitionReason(c.st.Phase, ev),
	}
}

func (c *Controller) notifyWaiters(err error) {
	for _, w := range c.waiters {
		w <- err
	}
	c.waiters = nil
}

// releaseHandle tears the current handle down synchronously. The handle is
// forgotten before Release so it can never be released twice.
func (c *Controller) releaseHandle(cause string) error {
	if c.handle == "" {
		return nil
	}
	h := c.handle
	c.handle = ""
	c.stopWatchdog()
	close(c.fwdStop)

	eng := c.deps.Engine
	if err := eng.Stop(h); err != nil {
		c.logger.Debug().Err(err).Str(xglog.FieldHandle, string(h)).Msg("engine stop before release failed")
	}
	if err := eng.DetachSurface(h); err != nil {
		c.logger.Debug().Err(err).Str(xglog.FieldHandle, string(h)).Msg("detach surface failed")
	}
	err := eng.Release(h)
	c.fwdWG.Wait()

	metrics.HandleReleased(cause)
	if err != nil {
		c.logger.Warn().Err(err).Str(xglog.FieldHandle, string(h)).Msg("engine release reported an error")
		return fmt.Errorf("release engine handle: %w", err)
	}
	c.logger.Debug().Str(xglog.FieldHandle, string(h)).Str(xglog.FieldReason, cause).Msg("engine handle released")
	return nil
}

// endRecording disarms an active recording without reconfiguring the engine
// and hands the partial artifact to the sink.
func (c *Controller) endRecording(ctx context.Context) *model.ArtifactHandle {
	a, ok := c.rec.Abort()
	if !ok {
		return nil
	}
	c.logger.Info().
		Str(xglog.FieldTarget, a.OutputTarget).
		Dur("duration", a.Duration).
		Msg("recording ended by teardown, partial artifact kept")
	c.indexArtifact(ctx, a)
	return &a
}

func (c *Controller) indexArtifact(ctx context.Context, a model.ArtifactHandle) {
	if c.deps.Sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := c.deps.Sink.Index(ctx, a); err != nil {
		c.logger.Warn().Err(err).Str(xglog.FieldTarget, a.OutputTarget).Msg("artifact indexing failed")
	}
}

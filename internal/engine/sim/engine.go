// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package sim is a deterministic in-process engine. It renders nothing; it
// tracks handle lifetimes and lets callers inject events and positions.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/ports"
	"github.com/ManuGH/pipview/internal/profiles"
)

// ErrUnknownHandle is returned for handles never opened or already released.
var ErrUnknownHandle = errors.New("sim: unknown or released handle")

const eventBuffer = 64

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithAutoPlay makes Play emit a Playing event immediately.
func WithAutoPlay(on bool) Option {
	return func(e *Engine) { e.autoPlay = on }
}

// WithOpenError makes every Open fail with err.
func WithOpenError(err error) Option {
	return func(e *Engine) { e.openErr = err }
}

type handle struct {
	address    string
	profile    profiles.ConnectionProfile
	configures int
	surface    ports.Surface
	events     chan ports.EngineEvent
	playing    bool
	base       time.Duration
	since      time.Time
	dualTarget string
	dualCalls  int
}

// Engine implements ports.Engine.
type Engine struct {
	now      func() time.Time
	autoPlay bool
	openErr  error

	mu       sync.Mutex
	seq      int
	handles  map[ports.Handle]*handle
	opens    int
	releases int
	dualErr  error
}

// New creates a simulated engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:     time.Now,
		handles: make(map[ports.Handle]*handle),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Open(ctx context.Context, address string) (ports.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.openErr != nil {
		return "", e.openErr
	}
	if address == "" {
		return "", errors.New("sim: empty address")
	}
	e.seq++
	h := ports.Handle(fmt.Sprintf("sim-%d", e.seq))
	e.handles[h] = &handle{address: address, events: make(chan ports.EngineEvent, eventBuffer)}
	e.opens++
	return h, nil
}

func (e *Engine) lookup(h ports.Handle) (*handle, error) {
	st, ok := e.handles[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	return st, nil
}

func (e *Engine) Configure(h ports.Handle, p profiles.ConnectionProfile) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return err
	}
	st.profile = p
	st.configures++
	return nil
}

func (e *Engine) AttachSurface(h ports.Handle, s ports.Surface) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return err
	}
	st.surface = s
	return nil
}

func (e *Engine) DetachSurface(h ports.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return err
	}
	st.surface = nil
	return nil
}

func (e *Engine) Play(h ports.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return err
	}
	if !st.playing {
		st.playing = true
		st.since = e.now()
	}
	if e.autoPlay {
		e.emitLocked(h, st, ports.EngineEvent{Kind: ports.EventPlaying})
	}
	return nil
}

func (e *Engine) Stop(h ports.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return err
	}
	st.base = e.positionLocked(st)
	st.playing = false
	return nil
}

func (e *Engine) Seek(h ports.Handle, position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return err
	}
	st.base = position
	st.since = e.now()
	return nil
}

func (e *Engine) positionLocked(st *handle) time.Duration {
	if !st.playing {
		return st.base
	}
	return st.base + e.now().Sub(st.since)
}

func (e *Engine) Position(h ports.Handle) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return 0, err
	}
	return e.positionLocked(st), nil
}

func (e *Engine) SetDualOutput(h ports.Handle, target string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return err
	}
	st.dualCalls++
	if e.dualErr != nil {
		return e.dualErr
	}
	st.dualTarget = target
	return nil
}

func (e *Engine) Release(h ports.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return err
	}
	delete(e.handles, h)
	close(st.events)
	e.releases++
	return nil
}

// Events returns the handle's stream, or a closed channel for unknown handles.
func (e *Engine) Events(h ports.Handle) <-chan ports.EngineEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.handles[h]; ok {
		return st.events
	}
	ch := make(chan ports.EngineEvent)
	close(ch)
	return ch
}

func (e *Engine) emitLocked(h ports.Handle, st *handle, ev ports.EngineEvent) bool {
	ev.Handle = h
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	select {
	case st.events <- ev:
		return true
	default:
		return false
	}
}

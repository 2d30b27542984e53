// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recording

import (
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/lifecycle"
	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/metrics"
)

// Output is the engine's dual-output switch for one handle. An empty target
// restores single-output rendering.
type Output interface {
	SetDualOutput(target string) error
}

// OutputFunc adapts a function to Output.
type OutputFunc func(target string) error

func (f OutputFunc) SetDualOutput(target string) error { return f(target) }

// Controller owns the arming guard and elapsed-time tracking for the
// secondary (duplicate-to-file) output.
type Controller struct {
	now func() time.Time

	mu     sync.Mutex
	active *model.RecordingSession
	source string
}

// NewController creates a disarmed controller. A nil clock means time.Now.
func NewController(now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{now: now}
}

// Start arms the controller and requests dual output exactly once. A second
// Start while armed returns ErrRecordingAlreadyActive without touching out.
// If out fails the controller stays disarmed.
func (c *Controller) Start(out Output, target, source string) (model.RecordingSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return *c.active, lifecycle.NewReasonError(model.RRecordingActive, c.active.OutputTarget, nil)
	}
	if target == "" {
		return model.RecordingSession{}, fmt.Errorf("recording: empty output target")
	}
	if err := out.SetDualOutput(target); err != nil {
		return model.RecordingSession{}, fmt.Errorf("recording: enable dual output: %w", err)
	}
	rs := model.RecordingSession{StartedAt: c.now(), OutputTarget: target}
	c.active = &rs
	c.source = source
	return rs, nil
}

// Stop restores single-output rendering and disarms. Stopping a disarmed
// controller is a safe no-op that returns ErrNotRecording. If out fails the
// controller stays armed so the caller may retry or abort.
func (c *Controller) Stop(out Output) (model.ArtifactHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return model.ArtifactHandle{}, lifecycle.NewReasonError(model.RNotRecording, "", nil)
	}
	if err := out.SetDualOutput(""); err != nil {
		return model.ArtifactHandle{}, fmt.Errorf("recording: restore single output: %w", err)
	}
	return c.finishLocked(false), nil
}

// Abort disarms without reconfiguring the engine, for teardown paths where
// the handle is about to be released. The partial artifact is kept.
func (c *Controller) Abort() (model.ArtifactHandle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return model.ArtifactHandle{}, false
	}
	return c.finishLocked(true), true
}

func (c *Controller) finishLocked(partial bool) model.ArtifactHandle {
	stopped := c.now()
	a := model.ArtifactHandle{
		OutputTarget:  c.active.OutputTarget,
		SourceAddress: c.source,
		StartedAt:     c.active.StartedAt,
		StoppedAt:     stopped,
		Duration:      stopped.Sub(c.active.StartedAt),
		Partial:       partial,
	}
	c.active = nil
	c.source = ""
	metrics.RecordRecordingFinished(partial, a.Duration)
	return a
}

// Active returns the current recording session, if armed.
func (c *Controller) Active() (model.RecordingSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return model.RecordingSession{}, false
	}
	return *c.active, true
}

// Elapsed is the time since Start, or zero when disarmed.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return 0
	}
	return c.now().Sub(c.active.StartedAt)
}

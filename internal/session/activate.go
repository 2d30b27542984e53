// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/lifecycle"
	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/domain/session/ports"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/ManuGH/pipview/internal/metrics"
	"github.com/ManuGH/pipview/internal/profiles"
	"github.com/ManuGH/pipview/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Activate opens an engine handle for address and starts playback. A pending
// handoff entry is consumed first; when it resumes the same source (or address
// is empty) the resume profile and saved position replace intent and startPos.
//
// Activate returns once the session is Connecting. Use WaitPlaying to observe
// the outcome. Open failures return ErrEngineInit and leave the controller Idle.
func (c *Controller) Activate(ctx context.Context, address string, intent model.Intent, startPos time.Duration) error {
	var err error
	if derr := c.do(func() { err = c.activate(ctx, address, intent, startPos, false) }); derr != nil {
		return derr
	}
	return err
}

// ActivateFrom activates from an entry the host supplied. The supplied entry
// takes precedence over the handoff store: a stored entry is still consumed,
// so it is never replayed later, but its address and position are ignored.
// A ResumeRequested entry starts with the resume profile at its position,
// otherwise fallback is used from the start.
func (c *Controller) ActivateFrom(ctx context.Context, entry model.HandoffEntry, fallback model.Intent) error {
	intent, pos := fallback, time.Duration(0)
	if entry.ResumeRequested {
		intent, pos = model.IntentResume, entry.Position
	}
	var err error
	if derr := c.do(func() { err = c.activate(ctx, entry.SourceAddress, intent, pos, true) }); derr != nil {
		return derr
	}
	return err
}

func (c *Controller) activate(ctx context.Context, address string, intent model.Intent, startPos time.Duration, explicit bool) error {
	if c.closed {
		return lifecycle.ErrClosed
	}
	if !c.st.Phase.CanActivate() {
		return c.illegal(lifecycle.EvActivate)
	}

	ctx, span := c.tracer.Start(ctx, "session.activate")
	defer span.End()

	address, intent, startPos, resumed := c.consumeHandoff(ctx, address, intent, startPos, explicit)
	profile := c.deps.Profiles.Resolve(intent)
	masked := xglog.MaskAddress(address)
	span.SetAttributes(telemetry.SessionAttributes(c.id, string(c.deps.Surface.Kind()), profile.Name, masked)...)
	span.SetAttributes(attribute.Bool(telemetry.SessionResumeKey, resumed), attribute.Int64(telemetry.SessionPosKey, startPos.Milliseconds()))

	if address == "" {
		c.lastErr = lifecycle.NewReasonError(model.REngineInit, "empty source address", nil)
		return c.lastErr
	}

	h, err := c.deps.Engine.Open(ctx, address)
	if err != nil {
		c.lastErr = lifecycle.NewReasonError(model.REngineInit, "", err)
		metrics.RecordActivation(profile.Name, "engine_init")
		recordSpanError(span, c.lastErr, model.REngineInit)
		c.logger.Error().Err(err).Str(xglog.FieldAddress, masked).Msg("engine handle creation failed")
		return c.lastErr
	}
	metrics.HandleOpened()

	c.handle = h
	c.profile = profile
	c.lastErr = nil
	c.st.SourceAddress = address
	c.st.Intent = intent
	c.st.Position = startPos
	c.st.BufferingPct = 0
	c.startForwarder(h)
	c.transition(lifecycle.Event{Kind: lifecycle.EvActivate})

	c.logger.Info().
		Str(xglog.FieldHandle, string(h)).
		Str(xglog.FieldAddress, masked).
		Str(xglog.FieldProfile, profile.Name).
		Int64(xglog.FieldPositionMS, startPos.Milliseconds()).
		Bool("resumed", resumed).
		Msg("session activating")

	if err := c.startEngine(h, profile, startPos); err != nil {
		c.fail(model.REngineInit, "", err, "engine_init")
		recordSpanError(span, c.lastErr, model.REngineInit)
		return c.lastErr
	}
	c.armWatchdog(h)
	metrics.RecordActivation(profile.Name, "connecting")
	return nil
}

func (c *Controller) startEngine(h ports.Handle, p profiles.ConnectionProfile, startPos time.Duration) error {
	eng := c.deps.Engine
	if err := eng.Configure(h, p); err != nil {
		return fmt.Errorf("configure: %w", err)
	}
	if err := eng.AttachSurface(h, c.deps.Surface); err != nil {
		return fmt.Errorf("attach surface: %w", err)
	}
	if err := eng.Play(h); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	if startPos > 0 {
		if err := eng.Seek(h, startPos); err != nil {
			return fmt.Errorf("seek: %w", err)
		}
	}
	return nil
}

// consumeHandoff takes the pending entry, if any. An entry for a different
// source than the caller asked for is consumed and dropped, and so is any
// entry when the caller supplied its own (explicit).
func (c *Controller) consumeHandoff(ctx context.Context, address string, intent model.Intent, startPos time.Duration, explicit bool) (string, model.Intent, time.Duration, bool) {
	resumed := explicit && intent == model.IntentResume
	if c.deps.Handoff == nil {
		return address, intent, startPos, resumed
	}
	entry, ok, err := c.deps.Handoff.Consume(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("handoff consume failed, starting fresh")
		return address, intent, startPos, resumed
	}
	if !ok {
		return address, intent, startPos, resumed
	}
	if explicit {
		c.logger.Info().
			Str(xglog.FieldAddress, xglog.MaskAddress(entry.SourceAddress)).
			Int64(xglog.FieldPositionMS, entry.Position.Milliseconds()).
			Msg("stored handoff entry superseded by supplied entry")
		return address, intent, startPos, resumed
	}
	if address != "" && address != entry.SourceAddress {
		c.logger.Info().
			Str(xglog.FieldAddress, xglog.MaskAddress(entry.SourceAddress)).
			Msg("dropping handoff entry for a different source")
		return address, intent, startPos, false
	}
	if !entry.ResumeRequested {
		return entry.SourceAddress, intent, startPos, false
	}
	return entry.SourceAddress, model.IntentResume, entry.Position, true
}

// WaitPlaying blocks until the current activation reaches Playing (nil) or
// fails (the failure, matching ErrConnectFailed or ErrEngineInit). Cancelling
// ctx abandons the wait only; the activation continues.
func (c *Controller) WaitPlaying(ctx context.Context) error {
	var (
		wait      chan error
		immediate error
	)
	err := c.do(func() {
		switch c.st.Phase {
		case model.PhasePlaying, model.PhaseRecording:
		case model.PhaseConnecting:
			wait = make(chan error, 1)
			c.waiters = append(c.waiters, wait)
		default:
			if c.lastErr != nil {
				immediate = c.lastErr
			} else {
				immediate = fmt.Errorf("%w: no activation in progress", lifecycle.ErrIllegalPhase)
			}
		}
	})
	if err != nil {
		return err
	}
	if wait == nil {
		return immediate
	}
	select {
	case err := <-wait:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recordSpanError(span trace.Span, err error, reason model.ReasonCode) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(reason))
	span.SetAttributes(telemetry.ErrorAttributes(string(reason))...)
}

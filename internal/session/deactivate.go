// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/lifecycle"
	"github.com/ManuGH/pipview/internal/domain/session/model"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/ManuGH/pipview/internal/metrics"
	"github.com/ManuGH/pipview/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Deactivate captures {address, position}, ends any recording (keeping the
// partial artifact), releases the engine handle synchronously and returns to
// Idle. With forHandoff the snapshot is published to the handoff store before
// Deactivate returns.
//
// On an Idle controller it returns an empty snapshot and releases nothing.
// While Connecting it returns ErrActivationInFlight.
func (c *Controller) Deactivate(ctx context.Context, forHandoff bool) (model.SessionSnapshot, error) {
	var (
		snap model.SessionSnapshot
		err  error
	)
	if derr := c.do(func() { snap, err = c.deactivate(ctx, forHandoff) }); derr != nil {
		return model.SessionSnapshot{}, derr
	}
	return snap, err
}

func (c *Controller) deactivate(ctx context.Context, forHandoff bool) (model.SessionSnapshot, error) {
	if c.closed {
		return model.SessionSnapshot{}, lifecycle.ErrClosed
	}
	switch c.st.Phase {
	case model.PhaseConnecting:
		return model.SessionSnapshot{}, lifecycle.ErrActivationInFlight
	case model.PhasePlaying, model.PhaseRecording:
	default:
		c.logger.Warn().Str(xglog.FieldEvent, "deactivate.idle").Msg("deactivate on idle controller ignored")
		metrics.RecordDiagnostic("deactivate_idle")
		return model.SessionSnapshot{}, nil
	}

	ctx, span := c.tracer.Start(ctx, "session.deactivate")
	defer span.End()
	span.SetAttributes(attribute.Bool(telemetry.HandoffForKey, forHandoff))

	snap := model.SessionSnapshot{
		SourceAddress: c.st.SourceAddress,
		Position:      c.currentPosition(),
	}
	snap.Artifact = c.endRecording(ctx)

	cause := "deactivate"
	if forHandoff {
		cause = "handoff"
	}
	_ = c.releaseHandle(cause)
	c.transition(lifecycle.Event{Kind: lifecycle.EvDeactivate})
	c.st.Position = snap.Position

	c.logger.Info().
		Str(xglog.FieldAddress, xglog.MaskAddress(snap.SourceAddress)).
		Int64(xglog.FieldPositionMS, snap.Position.Milliseconds()).
		Bool("for_handoff", forHandoff).
		Msg("session deactivated")

	if !forHandoff || c.deps.Handoff == nil {
		return snap, nil
	}
	if err := c.deps.Handoff.Publish(ctx, snap.HandoffEntry(c.opts.Now())); err != nil {
		recordSpanError(span, err, model.RUnknown)
		return snap, fmt.Errorf("publish handoff entry: %w", err)
	}
	return snap, nil
}

// currentPosition asks the engine, never going backwards from the last
// observed value.
func (c *Controller) currentPosition() time.Duration {
	if c.handle == "" {
		return c.st.Position
	}
	pos, err := c.deps.Engine.Position(c.handle)
	if err != nil {
		c.logger.Debug().Err(err).Msg("engine position unavailable")
		return c.st.Position
	}
	if pos > c.st.Position {
		c.st.Position = pos
	}
	return c.st.Position
}

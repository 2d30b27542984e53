// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/pipview/internal/domain/session/lifecycle"
	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/domain/session/ports"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/ManuGH/pipview/internal/metrics"
	"github.com/ManuGH/pipview/internal/recording"
	"github.com/ManuGH/pipview/internal/telemetry"
)

func (c *Controller) output(h ports.Handle) recording.Output {
	return recording.OutputFunc(func(target string) error {
		return c.deps.Engine.SetDualOutput(h, target)
	})
}

// StartRecording duplicates the stream to target while rendering continues.
// An empty target asks the namer for one. It requires Playing and storage
// permission; while already Recording it logs and returns
// ErrRecordingAlreadyActive without touching the engine.
func (c *Controller) StartRecording(ctx context.Context, target string) error {
	var err error
	if derr := c.do(func() { err = c.startRecording(ctx, target) }); derr != nil {
		return derr
	}
	return err
}

func (c *Controller) startRecording(ctx context.Context, target string) error {
	if c.closed {
		return lifecycle.ErrClosed
	}
	switch c.st.Phase {
	case model.PhasePlaying:
	case model.PhaseRecording:
		active, _ := c.rec.Active()
		c.logger.Warn().
			Str(xglog.FieldEvent, "recording.already_active").
			Str(xglog.FieldTarget, active.OutputTarget).
			Msg("start recording ignored, already recording")
		metrics.RecordDiagnostic("recording_already_active")
		return lifecycle.NewReasonError(model.RRecordingActive, active.OutputTarget, nil)
	default:
		return c.illegal(lifecycle.EvRecordStart)
	}

	if c.deps.Permission == nil || !c.deps.Permission.HasStoragePermission() {
		c.logger.Info().Msg("start recording refused, storage permission missing")
		return lifecycle.NewReasonError(model.RPermissionDenied, "", nil)
	}

	_, span := c.tracer.Start(ctx, "session.start_recording")
	defer span.End()

	if target == "" {
		if c.deps.Namer == nil {
			return errors.New("session: no recording target and no namer configured")
		}
		var err error
		if target, err = c.deps.Namer.NextTarget(); err != nil {
			return fmt.Errorf("choose recording target: %w", err)
		}
	}

	// Larger buffers for the output reconfiguration; a fresh profile, not a patch.
	recProfile := c.deps.Profiles.Resolve(model.IntentRecordingStart)
	if err := c.deps.Engine.Configure(c.handle, recProfile); err != nil {
		return fmt.Errorf("configure recording profile: %w", err)
	}
	if _, err := c.rec.Start(c.output(c.handle), target, c.st.SourceAddress); err != nil {
		if rerr := c.deps.Engine.Configure(c.handle, c.profile); rerr != nil {
			c.logger.Warn().Err(rerr).Msg("restoring profile after failed recording start")
		}
		recordSpanError(span, err, model.RUnknown)
		return err
	}
	c.profile = recProfile
	c.transition(lifecycle.Event{Kind: lifecycle.EvRecordStart})

	span.SetAttributes(telemetry.RecordingAttributes(target, 0, false)...)
	c.logger.Info().Str(xglog.FieldTarget, target).Msg("recording started")
	return nil
}

// StopRecording restores single-output rendering and returns the finished
// artifact, which is also handed to the sink. When not Recording it logs and
// returns ErrNotRecording without changing phase.
func (c *Controller) StopRecording(ctx context.Context) (model.ArtifactHandle, error) {
	var (
		a   model.ArtifactHandle
		err error
	)
	if derr := c.do(func() { a, err = c.stopRecording(ctx) }); derr != nil {
		return model.ArtifactHandle{}, derr
	}
	return a, err
}

func (c *Controller) stopRecording(ctx context.Context) (model.ArtifactHandle, error) {
	if c.closed {
		return model.ArtifactHandle{}, lifecycle.ErrClosed
	}
	if c.st.Phase != model.PhaseRecording {
		c.logger.Warn().
			Str(xglog.FieldEvent, "recording.not_active").
			Str(xglog.FieldPhase, string(c.st.Phase)).
			Msg("stop recording ignored, not recording")
		metrics.RecordDiagnostic("not_recording")
		return model.ArtifactHandle{}, lifecycle.NewReasonError(model.RNotRecording, "", nil)
	}

	ctx, span := c.tracer.Start(ctx, "session.stop_recording")
	defer span.End()

	a, err := c.rec.Stop(c.output(c.handle))
	if err != nil {
		recordSpanError(span, err, model.RUnknown)
		return model.ArtifactHandle{}, err
	}

	c.profile = c.deps.Profiles.Resolve(c.st.Intent)
	if err := c.deps.Engine.Configure(c.handle, c.profile); err != nil {
		c.logger.Warn().Err(err).Str(xglog.FieldProfile, c.profile.Name).Msg("restoring playback profile failed")
	}
	c.transition(lifecycle.Event{Kind: lifecycle.EvRecordStop})

	span.SetAttributes(telemetry.RecordingAttributes(a.OutputTarget, a.Duration.Milliseconds(), a.Partial)...)
	c.logger.Info().Str(xglog.FieldTarget, a.OutputTarget).Dur("duration", a.Duration).Msg("recording stopped")
	c.indexArtifact(ctx, a)
	return a, nil
}

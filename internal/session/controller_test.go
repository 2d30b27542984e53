// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/lifecycle"
	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/domain/session/ports"
	"github.com/ManuGH/pipview/internal/engine/sim"
	"github.com/ManuGH/pipview/internal/profiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestScenarioA_PlayRecordStop(t *testing.T) {
	h := newHarness()
	c := h.controller(t, model.SurfacePrimary, Options{})
	ctx := context.Background()

	hd := h.play(t, c, "rtsp://x", model.IntentInteractive, 0)

	require.NoError(t, c.StartRecording(ctx, "/out.mp4"))
	assert.Equal(t, model.PhaseRecording, c.Phase())
	snap, ok := h.eng.Inspect(hd)
	require.True(t, ok)
	assert.Equal(t, "/out.mp4", snap.DualTarget)
	assert.Equal(t, profiles.ProfileRecordingStart, snap.Profile.Name)

	st := c.Status()
	assert.Equal(t, "/out.mp4", st.RecordingTarget)

	artifact, err := c.StopRecording(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/out.mp4", artifact.OutputTarget)
	assert.Equal(t, "rtsp://x", artifact.SourceAddress)
	assert.False(t, artifact.Partial)
	assert.Equal(t, model.PhasePlaying, c.Phase())

	snap, _ = h.eng.Inspect(hd)
	assert.Empty(t, snap.DualTarget)
	assert.Equal(t, profiles.ProfileInteractive, snap.Profile.Name)
	assert.Len(t, h.sink.All(), 1)
}

func TestScenarioB_HandoffResumesAtSavedPosition(t *testing.T) {
	frozen := time.Unix(1_700_000_000, 0)
	h := newHarness(sim.WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	primary := h.controller(t, model.SurfacePrimary, Options{})
	hd := h.play(t, primary, "rtsp://cam/1", model.IntentInteractive, 0)
	h.eng.SetPosition(hd, 12_000*time.Millisecond)

	snap, err := primary.Deactivate(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "rtsp://cam/1", snap.SourceAddress)
	assert.Equal(t, 12*time.Second, snap.Position)
	assert.Equal(t, model.PhaseIdle, primary.Phase())
	assert.Zero(t, h.eng.Live())

	entry, ok, err := h.store.Consume(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rtsp://cam/1", entry.SourceAddress)
	assert.Equal(t, 12*time.Second, entry.Position)
	assert.True(t, entry.ResumeRequested)
	require.NoError(t, h.store.Publish(ctx, entry))
	require.NoError(t, primary.Close())

	overlay := h.controller(t, model.SurfaceOverlay, Options{})
	require.NoError(t, overlay.Activate(ctx, "", model.IntentOverlay, 0))
	resumed := h.onlyHandle(t)
	rs, ok := h.eng.Inspect(resumed)
	require.True(t, ok)
	assert.Equal(t, profiles.ProfileResume, rs.Profile.Name)
	assert.Equal(t, "rtsp://cam/1", rs.Address)
	assert.Equal(t, "test-overlay", rs.SurfaceID)

	pos, err := h.eng.Position(resumed)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, pos)
	assert.False(t, h.hasPending(t), "entry must be consumed")
}

func TestScenarioC_EngineErrorWhileRecording(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		changes []model.PhaseChange
	)
	c := h.controller(t, model.SurfacePrimary, Options{OnPhaseChange: func(pc model.PhaseChange) {
		mu.Lock()
		changes = append(changes, pc)
		mu.Unlock()
	}})
	hd := h.play(t, c, "rtsp://cam/1", model.IntentInteractive, 0)
	require.NoError(t, c.StartRecording(ctx, "/out.mp4"))

	marker := model.HandoffEntry{SourceAddress: "rtsp://other", Position: time.Second, ResumeRequested: true}
	require.NoError(t, h.store.Publish(ctx, marker))

	require.True(t, h.eng.EmitError(hd, "timeout"))
	eventuallyPhase(t, c, model.PhaseIdle)

	assert.Equal(t, 1, h.eng.Releases())
	assert.Zero(t, h.eng.Live())

	st := c.Status()
	assert.Equal(t, model.REngineError, st.Reason)
	assert.Contains(t, st.LastError, "timeout")

	err := c.WaitPlaying(ctx)
	require.ErrorIs(t, err, lifecycle.ErrConnectFailed)

	entry, ok, cerr := h.store.Consume(ctx)
	require.NoError(t, cerr)
	require.True(t, ok, "handoff store must be untouched")
	assert.Equal(t, marker.SourceAddress, entry.SourceAddress)

	artifacts := h.sink.All()
	require.Len(t, artifacts, 1)
	assert.True(t, artifacts[0].Partial)

	mu.Lock()
	defer mu.Unlock()
	var sawError bool
	for _, pc := range changes {
		if pc.To == model.PhaseError {
			sawError = true
			require.ErrorIs(t, pc.Err, lifecycle.ErrConnectFailed)
		}
	}
	assert.True(t, sawError, "Error phase must be reported before teardown")
	assert.Equal(t, model.PhaseIdle, changes[len(changes)-1].To)
}

func TestScenarioD_PermissionDenied(t *testing.T) {
	h := newHarness()
	h.perm.Revoke()
	c := h.controller(t, model.SurfacePrimary, Options{})
	hd := h.play(t, c, "rtsp://cam/1", model.IntentInteractive, 0)

	err := c.StartRecording(context.Background(), "/out.mp4")
	require.ErrorIs(t, err, lifecycle.ErrPermissionDenied)
	assert.Equal(t, model.PhasePlaying, c.Phase())

	snap, _ := h.eng.Inspect(hd)
	assert.Zero(t, snap.DualCalls)
}

func TestRelease_ExactlyOncePerHandle(t *testing.T) {
	h := newHarness()
	c := h.controller(t, model.SurfacePrimary, Options{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		h.play(t, c, "rtsp://cam/1", model.IntentInteractive, 0)
		_, err := c.Deactivate(ctx, false)
		require.NoError(t, err)

		snap, err := c.Deactivate(ctx, false)
		require.NoError(t, err)
		assert.True(t, snap.IsEmpty(), "second deactivate must be a no-op")
	}
	require.NoError(t, c.Close())

	assert.Equal(t, 3, h.eng.Opens())
	assert.Equal(t, h.eng.Opens(), h.eng.Releases())
	assert.Zero(t, h.eng.Live())
}

func TestRoundTrip_PositionNotBeforeStart(t *testing.T) {
	for _, start := range []time.Duration{0, 1500 * time.Millisecond, 12 * time.Second, 3 * time.Hour} {
		h := newHarness()
		c := h.controller(t, model.SurfacePrimary, Options{})
		h.play(t, c, "rtsp://cam/7", model.IntentInteractive, start)

		_, err := c.Deactivate(context.Background(), true)
		require.NoError(t, err)

		entry, ok, err := h.store.Consume(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "rtsp://cam/7", entry.SourceAddress)
		assert.GreaterOrEqual(t, entry.Position, start)
	}
}

func TestStopRecording_WhenNotRecording(t *testing.T) {
	h := newHarness()
	c := h.controller(t, model.SurfacePrimary, Options{})

	_, err := c.StopRecording(context.Background())
	require.ErrorIs(t, err, lifecycle.ErrNotRecording)
	assert.Equal(t, model.PhaseIdle, c.Phase())

	h.play(t, c, "rtsp://cam/1", model.IntentInteractive, 0)
	_, err = c.StopRecording(context.Background())
	require.ErrorIs(t, err, lifecycle.ErrNotRecording)
	assert.Equal(t, model.PhasePlaying, c.Phase())
}

func TestStartRecording_AlreadyActive(t *testing.T) {
	h := newHarness()
	c := h.controller(t, model.SurfacePrimary, Options{})
	hd := h.play(t, c, "rtsp://cam/1", model.IntentInteractive, 0)
	ctx := context.Background()

	require.NoError(t, c.StartRecording(ctx, "/a.mp4"))
	err := c.StartRecording(ctx, "/b.mp4")
	require.ErrorIs(t, err, lifecycle.ErrRecordingAlreadyActive)
	assert.True(t, lifecycle.IsProgrammerError(err))

	snap, _ := h.eng.Inspect(hd)
	assert.Equal(t, 1, snap.DualCalls)
	assert.Equal(t, "/a.mp4", snap.DualTarget)
	assert.Equal(t, model.PhaseRecording, c.Phase())
}

func TestStartRecording_UsesNamerForEmptyTarget(t *testing.T) {
	h := newHarness()
	c, err := New(Deps{
		Engine:     h.eng,
		Surface:    testSurface{kind: model.SurfacePrimary},
		Permission: h.perm,
		Namer:      namerFunc(func() (string, error) { return "/rec/Recording_1.mp4", nil }),
		Profiles:   profiles.DefaultSelector(),
	}, Options{})
	require.NoError(t, err)
	defer c.Close()

	hd := h.play(t, c, "rtsp://cam/1", model.IntentInteractive, 0)
	require.NoError(t, c.StartRecording(context.Background(), ""))
	snap, _ := h.eng.Inspect(hd)
	assert.Equal(t, "/rec/Recording_1.mp4", snap.DualTarget)
}

type namerFunc func() (string, error)

func (f namerFunc) NextTarget() (string, error) { return f() }

func TestStartRecording_RequiresPlaying(t *testing.T) {
	h := newHarness()
	c := h.controller(t, model.SurfacePrimary, Options{})
	err := c.StartRecording(context.Background(), "/out.mp4")
	require.ErrorIs(t, err, lifecycle.ErrIllegalPhase)
}

func TestDeactivate_WhileConnecting(t *testing.T) {
	h := newHarness()
	c := h.controller(t, model.SurfacePrimary, Options{})
	require.NoError(t, c.Activate(context.Background(), "rtsp://cam/1", model.IntentInteractive, 0))

	_, err := c.Deactivate(context.Background(), true)
	require.ErrorIs(t, err, lifecycle.ErrActivationInFlight)
	assert.Equal(t, model.PhaseConnecting, c.Phase())
	assert.Equal(t, 1, h.eng.Live())

	require.NoError(t, c.Close())
	assert.Zero(t, h.eng.Live())
}

func TestActivate_EngineInitError(t *testing.T) {
	h := newHarness(sim.WithOpenError(errors.New("no decoder")))
	c := h.controller(t, model.SurfacePrimary, Options{})

	err := c.Activate(context.Background(), "rtsp://cam/1", model.IntentInteractive, 0)
	require.ErrorIs(t, err, lifecycle.ErrEngineInit)
	assert.Equal(t, model.PhaseIdle, c.Phase())
	assert.Zero(t, h.eng.Opens())
	require.ErrorIs(t, c.WaitPlaying(context.Background()), lifecycle.ErrEngineInit)
}

func TestActivate_RejectedWhileLive(t *testing.T) {
	h := newHarness()
	c := h.controller(t, model.SurfacePrimary, Options{})
	h.play(t, c, "rtsp://cam/1", model.IntentInteractive, 0)

	err := c.Activate(context.Background(), "rtsp://cam/2", model.IntentInteractive, 0)
	require.ErrorIs(t, err, lifecycle.ErrIllegalPhase)
	assert.Equal(t, 1, h.eng.Opens())
}

func TestActivate_DropsHandoffForDifferentSource(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	require.NoError(t, h.store.Publish(ctx, model.HandoffEntry{SourceAddress: "rtsp://old", Position: time.Minute, ResumeRequested: true}))

	c := h.controller(t, model.SurfacePrimary, Options{})
	require.NoError(t, c.Activate(ctx, "rtsp://new", model.IntentInteractive, 0))

	snap, ok := h.eng.Inspect(h.onlyHandle(t))
	require.True(t, ok)
	assert.Equal(t, "rtsp://new", snap.Address)
	assert.Equal(t, profiles.ProfileInteractive, snap.Profile.Name)
	assert.False(t, h.hasPending(t))
}

func TestConnectWatchdog(t *testing.T) {
	h := newHarness()
	c := h.controller(t, model.SurfacePrimary, Options{ConnectTimeout: 20 * time.Millisecond})
	require.NoError(t, c.Activate(context.Background(), "rtsp://cam/1", model.IntentInteractive, 0))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := c.WaitPlaying(ctx)
	require.ErrorIs(t, err, lifecycle.ErrConnectFailed)
	reason, _, ok := lifecycle.ReasonFromError(err)
	require.True(t, ok)
	assert.Equal(t, model.RConnectTimeout, reason)

	assert.Equal(t, model.PhaseIdle, c.Phase())
	assert.Equal(t, 1, h.eng.Releases())
}

func TestWaitPlaying_ContextAbandonsWaitOnly(t *testing.T) {
	h := newHarness()
	c := h.controller(t, model.SurfacePrimary, Options{})
	require.NoError(t, c.Activate(context.Background(), "rtsp://cam/1", model.IntentInteractive, 0))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, c.WaitPlaying(ctx), context.DeadlineExceeded)
	assert.Equal(t, model.PhaseConnecting, c.Phase())

	require.True(t, h.eng.EmitPlaying(h.onlyHandle(t)))
	eventuallyPhase(t, c, model.PhasePlaying)
}

func TestEndReached_ReturnsToIdle(t *testing.T) {
	h := newHarness()
	c := h.controller(t, model.SurfacePrimary, Options{})
	hd := h.play(t, c, "rtsp://cam/1", model.IntentInteractive, 0)

	require.True(t, h.eng.EmitEndReached(hd))
	eventuallyPhase(t, c, model.PhaseIdle)

	st := c.Status()
	assert.Equal(t, model.REndReached, st.Reason)
	assert.Empty(t, st.LastError)
	assert.Equal(t, 1, h.eng.Releases())

	// A fresh activation is legal again.
	h.play(t, c, "rtsp://cam/1", model.IntentInteractive, 0)
}

func TestStaleHandleEventsIgnored(t *testing.T) {
	h := newHarness()
	c := h.controller(t, model.SurfacePrimary, Options{})
	h.play(t, c, "rtsp://cam/1", model.IntentInteractive, 0)

	require.NoError(t, c.do(func() {
		c.onEngineEvent(ports.EngineEvent{Handle: "sim-999", Kind: ports.EventEncounteredError, Reason: "late"})
	}))
	assert.Equal(t, model.PhasePlaying, c.Phase())
}

func TestBufferingReportedInStatus(t *testing.T) {
	h := newHarness()
	c := h.controller(t, model.SurfacePrimary, Options{})
	hd := h.play(t, c, "rtsp://cam/1", model.IntentInteractive, 0)

	require.True(t, h.eng.EmitBuffering(hd, 42))
	require.Eventually(t, func() bool { return c.Status().BufferingPct == 42 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, profiles.ProfileInteractive, c.Status().Profile)
}

func TestClose_ReleasesInAnyPhaseAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness()
	c, err := New(Deps{
		Engine:     h.eng,
		Surface:    testSurface{kind: model.SurfaceOverlay},
		Handoff:    h.store,
		Permission: h.perm,
		Sink:       h.sink,
		Profiles:   profiles.DefaultSelector(),
	}, Options{ConnectTimeout: time.Minute})
	require.NoError(t, err)

	h.play(t, c, "rtsp://cam/1", model.IntentOverlay, 0)
	require.NoError(t, c.StartRecording(context.Background(), "/out.mp4"))

	require.NoError(t, c.Close())
	assert.Equal(t, 1, h.eng.Releases())
	assert.Zero(t, h.eng.Live())
	require.Len(t, h.sink.All(), 1)
	assert.True(t, h.sink.All()[0].Partial)
	assert.False(t, h.hasPending(t), "destroy without handoff publishes nothing")

	require.ErrorIs(t, c.Close(), lifecycle.ErrClosed)
	require.ErrorIs(t, c.Activate(context.Background(), "rtsp://cam/1", model.IntentInteractive, 0), lifecycle.ErrClosed)
	_, err = c.Deactivate(context.Background(), false)
	require.ErrorIs(t, err, lifecycle.ErrClosed)
	assert.Equal(t, model.PhaseIdle, c.Status().Phase)
}

func TestNew_RequiresEngineAndSurface(t *testing.T) {
	_, err := New(Deps{Surface: testSurface{}}, Options{})
	require.Error(t, err)
	_, err = New(Deps{Engine: sim.New()}, Options{})
	require.Error(t, err)
}

func TestDeactivate_HandoffPublishFailure(t *testing.T) {
	errStoreDown := errors.New("store down")
	frozen := time.Unix(1_700_000_000, 0)
	h := newHarness(sim.WithClock(func() time.Time { return frozen }))
	h.store = failingStore{HandoffStore: h.store, err: errStoreDown}
	c := h.controller(t, model.SurfacePrimary, Options{})
	hd := h.play(t, c, "rtsp://cam/1", model.IntentInteractive, 0)
	h.eng.SetPosition(hd, 9*time.Second)

	snap, err := c.Deactivate(context.Background(), true)
	require.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, "rtsp://cam/1", snap.SourceAddress)
	assert.Equal(t, 9*time.Second, snap.Position)
	assert.Equal(t, model.PhaseIdle, c.Phase())
	assert.Equal(t, 1, h.eng.Releases())
	assert.Zero(t, h.eng.Live())
	assert.False(t, h.hasPending(t))

	// Already idle: no second release.
	again, err := c.Deactivate(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, again.IsEmpty())
	assert.Equal(t, 1, h.eng.Releases())

	// The controller can be activated again.
	h.play(t, c, "rtsp://cam/1", model.IntentInteractive, 0)
}

func TestActivateFrom_SuppliedEntryWinsOverStore(t *testing.T) {
	frozen := time.Unix(1_700_000_000, 0)
	h := newHarness(sim.WithClock(func() time.Time { return frozen }))
	ctx := context.Background()
	require.NoError(t, h.store.Publish(ctx, model.HandoffEntry{SourceAddress: "rtsp://cam/1", Position: 20 * time.Second, ResumeRequested: true}))

	c := h.controller(t, model.SurfaceOverlay, Options{})
	require.NoError(t, c.ActivateFrom(ctx, model.HandoffEntry{SourceAddress: "rtsp://cam/1", Position: 5 * time.Second, ResumeRequested: true}, model.IntentOverlay))

	hd := h.onlyHandle(t)
	pos, err := h.eng.Position(hd)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, pos)
	snap, ok := h.eng.Inspect(hd)
	require.True(t, ok)
	assert.Equal(t, profiles.ProfileResume, snap.Profile.Name)
	assert.False(t, h.hasPending(t))
}

func TestActivateFrom_WithoutResumeUsesFallback(t *testing.T) {
	h := newHarness()
	c := h.controller(t, model.SurfaceOverlay, Options{})
	require.NoError(t, c.ActivateFrom(context.Background(), model.HandoffEntry{SourceAddress: "rtsp://cam/2", Position: 5 * time.Second}, model.IntentOverlay))

	snap, ok := h.eng.Inspect(h.onlyHandle(t))
	require.True(t, ok)
	assert.Equal(t, "rtsp://cam/2", snap.Address)
	assert.Equal(t, profiles.ProfileOverlay, snap.Profile.Name)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/domain/session/ports"
	"github.com/ManuGH/pipview/internal/engine/sim"
	"github.com/ManuGH/pipview/internal/handoff"
	"github.com/ManuGH/pipview/internal/permission"
	"github.com/ManuGH/pipview/internal/profiles"
	"github.com/stretchr/testify/require"
)

type testSurface struct {
	kind model.SurfaceKind
}

func (s testSurface) ID() string              { return "test-" + string(s.kind) }
func (s testSurface) Kind() model.SurfaceKind { return s.kind }
func (s testSurface) AspectRatio() (int, int) { return 16, 9 }
func (s testSurface) Scale() ports.ScaleMode  { return ports.ScaleBestFit }

type memSink struct {
	mu        sync.Mutex
	artifacts []model.ArtifactHandle
}

func (s *memSink) Index(_ context.Context, a model.ArtifactHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = append(s.artifacts, a)
	return nil
}

func (s *memSink) All() []model.ArtifactHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ArtifactHandle(nil), s.artifacts...)
}

// failingStore rejects every publish with err.
type failingStore struct {
	ports.HandoffStore
	err error
}

func (s failingStore) Publish(context.Context, model.HandoffEntry) error { return s.err }

type harness struct {
	eng   *sim.Engine
	store ports.HandoffStore
	perm  *permission.Static
	sink  *memSink
}

func newHarness(engOpts ...sim.Option) *harness {
	return &harness{
		eng:   sim.New(engOpts...),
		store: handoff.NewMemoryStore(handoff.Options{}),
		perm:  permission.NewStatic(true, false),
		sink:  &memSink{},
	}
}

func (h *harness) controller(t *testing.T, kind model.SurfaceKind, opts Options) *Controller {
	t.Helper()
	c, err := New(Deps{
		Engine:     h.eng,
		Surface:    testSurface{kind: kind},
		Handoff:    h.store,
		Permission: h.perm,
		Sink:       h.sink,
		Profiles:   profiles.DefaultSelector(),
	}, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// hasPending reports whether the store holds an entry, putting it back.
func (h *harness) hasPending(t *testing.T) bool {
	t.Helper()
	ctx := context.Background()
	e, ok, err := h.store.Consume(ctx)
	require.NoError(t, err)
	if ok {
		require.NoError(t, h.store.Publish(ctx, e))
	}
	return ok
}

// onlyHandle returns the single live engine handle.
func (h *harness) onlyHandle(t *testing.T) ports.Handle {
	t.Helper()
	handles := h.eng.Handles()
	require.Len(t, handles, 1)
	return handles[0]
}

// play activates c and drives it to Playing.
func (h *harness) play(t *testing.T, c *Controller, addr string, intent model.Intent, pos time.Duration) ports.Handle {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.Activate(ctx, addr, intent, pos))
	require.Equal(t, model.PhaseConnecting, c.Phase())
	hd := h.onlyHandle(t)
	require.True(t, h.eng.EmitPlaying(hd))

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, c.WaitPlaying(waitCtx))
	require.Equal(t, model.PhasePlaying, c.Phase())
	return hd
}

func eventuallyPhase(t *testing.T, c *Controller, want model.Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Phase() == want }, time.Second, 5*time.Millisecond)
}

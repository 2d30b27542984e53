// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestEngine_OpenReleaseOnce(t *testing.T) {
	e := New()
	h, err := e.Open(context.Background(), "rtsp://cam/1")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Live())

	require.NoError(t, e.Release(h))
	require.ErrorIs(t, e.Release(h), ErrUnknownHandle)
	assert.Equal(t, 1, e.Opens())
	assert.Equal(t, 1, e.Releases())
	assert.Zero(t, e.Live())

	_, open := <-e.Events(h)
	assert.False(t, open)
}

func TestEngine_OpenError(t *testing.T) {
	e := New(WithOpenError(errors.New("no decoder")))
	_, err := e.Open(context.Background(), "rtsp://cam/1")
	require.Error(t, err)
	assert.Zero(t, e.Opens())
}

func TestEngine_PositionAdvancesWhilePlaying(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	e := New(WithClock(c.now))
	h, err := e.Open(context.Background(), "rtsp://cam/1")
	require.NoError(t, err)

	require.NoError(t, e.Play(h))
	require.NoError(t, e.Seek(h, 12*time.Second))
	c.t = c.t.Add(3 * time.Second)

	pos, err := e.Position(h)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, pos)

	require.NoError(t, e.Stop(h))
	c.t = c.t.Add(time.Minute)
	pos, err = e.Position(h)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, pos)
}

func TestEngine_AutoPlayEmits(t *testing.T) {
	e := New(WithAutoPlay(true))
	h, err := e.Open(context.Background(), "rtsp://cam/1")
	require.NoError(t, err)
	require.NoError(t, e.Play(h))

	ev := <-e.Events(h)
	assert.Equal(t, ports.EventPlaying, ev.Kind)
	assert.Equal(t, h, ev.Handle)
}

func TestEngine_EmitAfterReleaseIsDropped(t *testing.T) {
	e := New()
	h, err := e.Open(context.Background(), "rtsp://cam/1")
	require.NoError(t, err)
	require.NoError(t, e.Release(h))
	assert.False(t, e.EmitPlaying(h))
}

func TestEngine_DualOutput(t *testing.T) {
	e := New()
	h, err := e.Open(context.Background(), "rtsp://cam/1")
	require.NoError(t, err)

	require.NoError(t, e.SetDualOutput(h, "/out.mp4"))
	snap, ok := e.Inspect(h)
	require.True(t, ok)
	assert.Equal(t, "/out.mp4", snap.DualTarget)

	e.FailDualOutput(errors.New("busy"))
	require.Error(t, e.SetDualOutput(h, ""))
	snap, _ = e.Inspect(h)
	assert.Equal(t, 2, snap.DualCalls)
}

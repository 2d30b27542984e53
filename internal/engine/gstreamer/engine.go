// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build gst

package gstreamer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/ports"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/ManuGH/pipview/internal/profiles"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tinyzimmer/go-gst/gst"
)

const (
	eventBuffer   = 64
	busPoll       = 50 * time.Millisecond
	eosFlushLimit = 3 * time.Second
)

// ErrUnknownHandle is returned for handles this engine did not open or already released.
var ErrUnknownHandle = errors.New("gstreamer: unknown handle")

var initOnce sync.Once

type handle struct {
	address  string
	profile  profiles.ConnectionProfile
	surface  ports.Surface
	pipeline *gst.Pipeline
	recorder *gst.Pipeline
	target   string
	events   chan ports.EngineEvent
	stop     chan struct{}
	wg       sync.WaitGroup
}

// Engine implements ports.Engine with one GStreamer pipeline per handle.
type Engine struct {
	logger zerolog.Logger

	mu      sync.Mutex
	handles map[ports.Handle]*handle
}

// New initialises GStreamer once and returns an engine.
func New() *Engine {
	initOnce.Do(func() { gst.Init(nil) })
	return &Engine{
		logger:  xglog.WithComponent("engine").With().Str(xglog.FieldEngine, "gstreamer").Logger(),
		handles: make(map[ports.Handle]*handle),
	}
}

func (e *Engine) lookup(h ports.Handle) (*handle, error) {
	st, ok := e.handles[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	return st, nil
}

// Open registers a handle. The pipeline is built on Play so that profile and
// surface are known.
func (e *Engine) Open(ctx context.Context, address string) (ports.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if address == "" {
		return "", errors.New("gstreamer: empty address")
	}
	h := ports.Handle("gst-" + uuid.NewString())
	e.mu.Lock()
	e.handles[h] = &handle{
		address: address,
		events:  make(chan ports.EngineEvent, eventBuffer),
		stop:    make(chan struct{}),
	}
	e.mu.Unlock()
	return h, nil
}

// Configure stores the profile. On a running pipeline only the jitter buffer
// latency can change in place.
func (e *Engine) Configure(h ports.Handle, p profiles.ConnectionProfile) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return err
	}
	st.profile = p
	if st.pipeline == nil {
		return nil
	}
	src, err := st.pipeline.GetElementByName(elemSource)
	if err != nil {
		return nil
	}
	if err := src.SetProperty("latency", uint(p.Latency().Milliseconds())); err != nil {
		e.logger.Debug().Err(err).Str(xglog.FieldHandle, string(h)).Msg("latency not adjustable on this source")
	}
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

// Play builds the pipeline on first use and sets it PLAYING. Playing is
// reported asynchronously from the bus.
func (e *Engine) Play(h ports.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return err
	}
	if st.pipeline == nil {
		launch := playbackLaunch(st.address, st.profile, st.surface)
		pipeline, err := gst.NewPipelineFromString(launch)
		if err != nil {
			return fmt.Errorf("build pipeline: %w", err)
		}
		st.pipeline = pipeline
		st.wg.Add(1)
		go e.watchBus(h, st)
		e.logger.Debug().
			Str(xglog.FieldHandle, string(h)).
			Str(xglog.FieldAddress, xglog.MaskAddress(st.address)).
			Str(xglog.FieldProfile, st.profile.Name).
			Msg("pipeline built")
	}
	if err := st.pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("set playing: %w", err)
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
	if st.pipeline == nil {
		return nil
	}
	return st.pipeline.SetState(gst.StatePaused)
}

// Seek is best effort: live sources cannot seek and resume at the live edge.
func (e *Engine) Seek(h ports.Handle, position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return err
	}
	if st.pipeline == nil {
		return nil
	}
	if !st.pipeline.SeekSimple(position.Nanoseconds(), gst.FormatTime, gst.SeekFlagFlush|gst.SeekFlagKeyUnit) {
		e.logger.Debug().Str(xglog.FieldHandle, string(h)).Dur("position", position).Msg("source not seekable, staying at live edge")
	}
	return nil
}

func (e *Engine) Position(h ports.Handle) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return 0, err
	}
	if st.pipeline == nil {
		return 0, nil
	}
	ok, pos := st.pipeline.QueryPosition(gst.FormatTime)
	if !ok || pos < 0 {
		return 0, nil
	}
	return time.Duration(pos), nil
}

// SetDualOutput starts or finalises the recording pipeline. The render
// pipeline is not touched.
func (e *Engine) SetDualOutput(h ports.Handle, target string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.lookup(h)
	if err != nil {
		return err
	}
	if target == "" {
		e.finishRecorder(st)
		return nil
	}
	if st.recorder != nil {
		return fmt.Errorf("gstreamer: already writing %s", st.target)
	}
	rec, err := gst.NewPipelineFromString(recordLaunch(st.address, target, st.profile))
	if err != nil {
		return fmt.Errorf("build recorder: %w", err)
	}
	if err := rec.SetState(gst.StatePlaying); err != nil {
		_ = rec.SetState(gst.StateNull)
		return fmt.Errorf("start recorder: %w", err)
	}
	st.recorder = rec
	st.target = target
	return nil
}

// finishRecorder sends EOS so the muxer writes its index, then tears down.
func (e *Engine) finishRecorder(st *handle) {
	rec := st.recorder
	if rec == nil {
		return
	}
	st.recorder, st.target = nil, ""
	if rec.SendEvent(gst.NewEOSEvent()) {
		bus := rec.GetPipelineBus()
		deadline := time.Now().Add(eosFlushLimit)
		for time.Now().Before(deadline) {
			msg := bus.TimedPop(busPoll)
			if msg == nil {
				continue
			}
			if t := msg.Type(); t == gst.MessageEOS || t == gst.MessageError {
				break
			}
		}
	}
	_ = rec.SetState(gst.StateNull)
}

// Release stops the bus watcher, tears both pipelines down and closes the
// event channel.
func (e *Engine) Release(h ports.Handle) error {
	e.mu.Lock()
	st, err := e.lookup(h)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	delete(e.handles, h)
	e.finishRecorder(st)
	e.mu.Unlock()

	close(st.stop)
	st.wg.Wait()
	if st.pipeline != nil {
		_ = st.pipeline.SetState(gst.StateNull)
	}
	close(st.events)
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

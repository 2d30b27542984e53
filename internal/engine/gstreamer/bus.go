// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build gst

package gstreamer

import (
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/ports"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/tinyzimmer/go-gst/gst"
)

// watchBus polls the pipeline bus and maps messages onto engine events until
// the handle is released.
func (e *Engine) watchBus(h ports.Handle, st *handle) {
	defer st.wg.Done()
	bus := st.pipeline.GetPipelineBus()
	pipelineName := st.pipeline.GetName()

	for {
		select {
		case <-st.stop:
			return
		default:
		}

		msg := bus.TimedPop(busPoll)
		if msg == nil {
			continue
		}

		var ev ports.EngineEvent
		switch msg.Type() {
		case gst.MessageStateChanged:
			if msg.Source() != pipelineName {
				continue
			}
			_, newState := msg.ParseStateChanged()
			if newState != gst.StatePlaying {
				continue
			}
			ev = ports.EngineEvent{Kind: ports.EventPlaying}
		case gst.MessageBuffering:
			ev = ports.EngineEvent{Kind: ports.EventBuffering, Percent: float64(msg.ParseBuffering())}
		case gst.MessageError:
			gerr := msg.ParseError()
			e.logger.Warn().
				Str(xglog.FieldHandle, string(h)).
				Str("debug", gerr.DebugString()).
				Err(gerr).
				Msg("pipeline error")
			ev = ports.EngineEvent{Kind: ports.EventEncounteredError, Reason: gerr.Error()}
		case gst.MessageEOS:
			ev = ports.EngineEvent{Kind: ports.EventEndReached}
		default:
			continue
		}

		ev.Handle = h
		ev.At = time.Now()
		select {
		case st.events <- ev:
		case <-st.stop:
			return
		default:
			e.logger.Warn().Str(xglog.FieldHandle, string(h)).Str(xglog.FieldEvent, ev.Kind.String()).Msg("event buffer full, dropping")
		}
	}
}

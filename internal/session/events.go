// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/lifecycle"
	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/domain/session/ports"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/ManuGH/pipview/internal/metrics"
)

// startForwarder copies the handle's engine events into the owner loop until
// the stream closes or the handle is released.
func (c *Controller) startForwarder(h ports.Handle) {
	events := c.deps.Engine.Events(h)
	stop := make(chan struct{})
	c.fwdStop = stop
	c.fwdWG.Add(1)
	go func() {
		defer c.fwdWG.Done()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case c.inbox <- ev:
				case <-stop:
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

func (c *Controller) onEngineEvent(ev ports.EngineEvent) {
	if c.handle == "" || ev.Handle != c.handle {
		c.logger.Debug().
			Str(xglog.FieldHandle, string(ev.Handle)).
			Str(xglog.FieldEvent, ev.Kind.String()).
			Msg("ignoring event for stale handle")
		return
	}

	switch ev.Kind {
	case ports.EventPlaying:
		if c.st.Phase != model.PhaseConnecting {
			return
		}
		c.stopWatchdog()
		c.transition(lifecycle.Event{Kind: lifecycle.EvPlaying})
		metrics.ObserveConnectLatency(c.profile.Name, c.opts.Now().Sub(c.st.StartedAt))
		metrics.RecordActivation(c.profile.Name, "playing")
		c.notifyWaiters(nil)

	case ports.EventBuffering:
		c.st.BufferingPct = ev.Percent
		c.logger.Debug().Float64(xglog.FieldBuffering, ev.Percent).Msg("engine buffering")

	case ports.EventEncounteredError:
		c.fail(model.REngineError, ev.Reason, nil, "engine_error")

	case ports.EventEndReached:
		c.endReached()
	}
}

// fail forces a full teardown after an engine fault: Error, release, Idle.
// The handoff store is never touched here.
func (c *Controller) fail(reason model.ReasonCode, detail string, cause error, releaseCause string) {
	wasConnecting := c.st.Phase == model.PhaseConnecting
	c.lastErr = lifecycle.NewReasonError(reason, detail, cause)
	c.endRecording(context.Background())

	c.transition(lifecycle.Event{Kind: lifecycle.EvEngineError, Reason: reason, Detail: detail})
	_ = c.releaseHandle(releaseCause)
	c.transition(lifecycle.Event{Kind: lifecycle.EvTeardown, Reason: reason, Detail: detail})

	if wasConnecting {
		metrics.RecordActivation(c.profile.Name, strings.ToLower(string(reason)))
	}
	c.logger.Warn().Err(c.lastErr).Str(xglog.FieldReason, string(reason)).Msg("session torn down after engine fault")
	c.notifyWaiters(c.lastErr)
}

func (c *Controller) endReached() {
	wasConnecting := c.st.Phase == model.PhaseConnecting
	c.endRecording(context.Background())
	_ = c.releaseHandle("end_reached")
	c.transition(lifecycle.Event{Kind: lifecycle.EvEndReached})
	if wasConnecting {
		c.lastErr = lifecycle.NewReasonError(model.RConnectFailed, "stream ended before playing", nil)
		c.notifyWaiters(c.lastErr)
	}
}

func (c *Controller) armWatchdog(h ports.Handle) {
	timeout := c.opts.ConnectTimeout
	if timeout <= 0 {
		return
	}
	c.watchdog = time.AfterFunc(timeout, func() {
		c.post(func() {
			if c.closed || c.handle != h || c.st.Phase != model.PhaseConnecting {
				return
			}
			c.fail(model.RConnectTimeout, fmt.Sprintf("no playing event within %s", timeout), nil, "connect_timeout")
		})
	})
}

func (c *Controller) stopWatchdog() {
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
}

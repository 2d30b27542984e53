// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package handoff

import (
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/metrics"
)

// Options are shared by all backends.
type Options struct {
	// MaxAge discards entries older than this on consume. Zero keeps entries forever.
	MaxAge time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// stamp fills PublishedAt when the caller left it empty.
func (o Options) stamp(e model.HandoffEntry) model.HandoffEntry {
	if e.PublishedAt.IsZero() {
		e.PublishedAt = o.now()
	}
	return e
}

// fresh reports whether a consumed entry may be handed out. Stale entries are
// already removed by the time this is called.
func (o Options) fresh(backend string, e model.HandoffEntry) bool {
	if o.MaxAge <= 0 || e.PublishedAt.IsZero() {
		return true
	}
	if o.now().Sub(e.PublishedAt) > o.MaxAge {
		metrics.IncHandoffStale(backend)
		return false
	}
	return true
}

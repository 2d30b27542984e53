// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package permission provides storage permission gates.
package permission

import (
	"context"
	"sync/atomic"
)

// Static is a gate flipped explicitly by the host (control API or tests).
type Static struct {
	granted        atomic.Bool
	grantOnRequest bool
}

// NewStatic creates a gate. grantOnRequest makes RequestStoragePermission
// grant instead of reporting the current value.
func NewStatic(granted, grantOnRequest bool) *Static {
	s := &Static{grantOnRequest: grantOnRequest}
	s.granted.Store(granted)
	return s
}

func (s *Static) HasStoragePermission() bool { return s.granted.Load() }

// Grant allows recording.
func (s *Static) Grant() { s.granted.Store(true) }

// Revoke denies recording. An active recording is not interrupted.
func (s *Static) Revoke() { s.granted.Store(false) }

func (s *Static) RequestStoragePermission(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)
	if s.grantOnRequest && ctx.Err() == nil {
		s.granted.Store(true)
	}
	ch <- s.granted.Load()
	close(ch)
	return ch
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "time"

// SessionState is owned exclusively by one session controller. SourceAddress is
// immutable while Phase != Idle.
type SessionState struct {
	Phase         Phase
	Reason        ReasonCode
	SourceAddress string
	Intent        Intent
	Position      time.Duration
	BufferingPct  float64
	StartedAt     time.Time
	UpdatedAt     time.Time
}

// Status is a read-only view of a controller for display and the control API.
type Status struct {
	SessionID        string        `json:"session_id"`
	Phase            Phase         `json:"phase"`
	Reason           ReasonCode    `json:"reason,omitempty"`
	SourceAddress    string        `json:"source_address,omitempty"`
	Profile          string        `json:"profile,omitempty"`
	Position         time.Duration `json:"position_ns"`
	BufferingPct     float64       `json:"buffering_pct"`
	RecordingElapsed time.Duration `json:"recording_elapsed_ns,omitempty"`
	RecordingTarget  string        `json:"recording_target,omitempty"`
	LastError        string        `json:"last_error,omitempty"`
}

// PhaseChange is emitted on every applied transition.
type PhaseChange struct {
	SessionID string
	From      Phase
	To        Phase
	Reason    ReasonCode
	Err       error
	At        time.Time
}

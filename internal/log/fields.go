// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"
	FieldSurface   = "surface"

	// Process / engine fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldHandle    = "handle"
	FieldEngine    = "engine"

	// State fields
	FieldPhase    = "phase"
	FieldOldPhase = "old_phase"
	FieldNewPhase = "new_phase"
	FieldReason   = "reason"

	// Stream fields
	FieldAddress    = "address"
	FieldProfile    = "profile"
	FieldPositionMS = "position_ms"
	FieldBuffering  = "buffering_pct"

	// Recording fields
	FieldTarget    = "target"
	FieldElapsedMS = "elapsed_ms"

	// Handoff fields
	FieldBackend = "backend"
)

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// Phase is the coarse lifecycle phase of a single session controller.
type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseConnecting Phase = "CONNECTING"
	PhasePlaying    Phase = "PLAYING"
	PhaseRecording  Phase = "RECORDING"
	PhaseError      Phase = "ERROR"
)

// IsLive reports whether the session is rendering frames.
func (p Phase) IsLive() bool {
	return p == PhasePlaying || p == PhaseRecording
}

// CanActivate reports whether a new activation is legal from this phase.
func (p Phase) CanActivate() bool {
	return p == PhaseIdle || p == PhaseError
}

// Intent selects the connection profile a session is tuned with.
type Intent string

const (
	IntentInteractive    Intent = "interactive"
	IntentOverlay        Intent = "overlay"
	IntentRecordingStart Intent = "recordingStart"
	IntentResume         Intent = "resume"
)

// ReasonCode is the machine-readable cause attached to an Error phase or a
// forced teardown.
type ReasonCode string

const (
	RNone             ReasonCode = ""
	REngineInit       ReasonCode = "ENGINE_INIT"
	RConnectFailed    ReasonCode = "CONNECT_FAILED"
	RConnectTimeout   ReasonCode = "CONNECT_TIMEOUT"
	REngineError      ReasonCode = "ENGINE_ERROR"
	REndReached       ReasonCode = "END_REACHED"
	RPermissionDenied ReasonCode = "PERMISSION_DENIED"
	RRecordingActive  ReasonCode = "RECORDING_ALREADY_ACTIVE"
	RNotRecording     ReasonCode = "NOT_RECORDING"
	RIllegalPhase     ReasonCode = "ILLEGAL_PHASE"
	ROwnerDestroyed   ReasonCode = "OWNER_DESTROYED"
	RUnknown          ReasonCode = "UNKNOWN"
)

// SurfaceKind identifies which of the two rendering surfaces owns a session.
type SurfaceKind string

const (
	SurfacePrimary SurfaceKind = "primary"
	SurfaceOverlay SurfaceKind = "overlay"
)

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "time"

// RecordingSession exists only while a controller is in PhaseRecording.
type RecordingSession struct {
	StartedAt    time.Time
	OutputTarget string
}

// ArtifactHandle is passed to the external indexing collaborator once a
// recording has stopped. Partial is true when the recording was ended by a
// teardown rather than an explicit stop.
type ArtifactHandle struct {
	OutputTarget  string        `json:"output_target"`
	SourceAddress string        `json:"source_address"`
	StartedAt     time.Time     `json:"started_at"`
	StoppedAt     time.Time     `json:"stopped_at"`
	Duration      time.Duration `json:"duration_ns"`
	Partial       bool          `json:"partial"`
}

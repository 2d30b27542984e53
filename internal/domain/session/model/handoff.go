// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "time"

// HandoffEntry is the single in-flight session descriptor passed between two
// surface owners.
type HandoffEntry struct {
	SourceAddress   string        `json:"source_address"`
	Position        time.Duration `json:"position_ns"`
	ResumeRequested bool          `json:"resume_requested"`
	PublishedAt     time.Time     `json:"published_at"`
}

// IsZero reports whether the entry carries no session.
func (e HandoffEntry) IsZero() bool {
	return e.SourceAddress == ""
}

// SessionSnapshot is what deactivate captured before the engine was released.
// Artifact is set when an active recording was ended by the deactivation.
type SessionSnapshot struct {
	SourceAddress string
	Position      time.Duration
	Artifact      *ArtifactHandle
}

// IsEmpty reports whether nothing was captured (deactivate on an idle controller).
func (s SessionSnapshot) IsEmpty() bool {
	return s.SourceAddress == ""
}

// HandoffEntry converts the snapshot into the entry published for the next owner.
func (s SessionSnapshot) HandoffEntry(now time.Time) HandoffEntry {
	return HandoffEntry{
		SourceAddress:   s.SourceAddress,
		Position:        s.Position,
		ResumeRequested: true,
		PublishedAt:     now,
	}
}

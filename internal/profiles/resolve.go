// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package profiles

import (
	"strings"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/model"
)

const (
	ProfileInteractive    = "interactive"
	ProfileOverlay        = "overlay"
	ProfileRecordingStart = "recordingStart"
	ProfileResume         = "resume"
)

var aliasMap = map[string]model.Intent{
	"":               model.IntentInteractive,
	"default":        model.IntentInteractive,
	"interactive":    model.IntentInteractive,
	"live":           model.IntentInteractive,
	"overlay":        model.IntentOverlay,
	"pip":            model.IntentOverlay,
	"recordingstart": model.IntentRecordingStart,
	"recording":      model.IntentRecordingStart,
	"record":         model.IntentRecordingStart,
	"resume":         model.IntentResume,
}

// ParseIntent maps a user-facing name to an intent. Unknown names fall back to
// interactive; ok reports whether the name was recognised.
func ParseIntent(name string) (model.Intent, bool) {
	intent, ok := aliasMap[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return model.IntentInteractive, false
	}
	return intent, true
}

func defaultTable() map[model.Intent]ConnectionProfile {
	return map[model.Intent]ConnectionProfile{
		// Balanced: enough buffering to ride out Wi-Fi jitter on the main surface.
		model.IntentInteractive: {
			Name:            ProfileInteractive,
			NetworkCaching:  300 * time.Millisecond,
			LiveCaching:     300 * time.Millisecond,
			FileCaching:     300 * time.Millisecond,
			FrameBufferSize: 500000,
			Decode:          DecodeHardware,
			RTSPOverTCP:     true,
		},
		// Minimum buffers and forced hardware decode: continuity over stability.
		model.IntentOverlay: {
			Name:            ProfileOverlay,
			NetworkCaching:  50 * time.Millisecond,
			LiveCaching:     0,
			FileCaching:     0,
			MuxCaching:      50 * time.Millisecond,
			FrameBufferSize: 100000,
			Decode:          DecodeHardwareForced,
			RTSPOverTCP:     true,
			ClockJitterZero: true,
			ClockSyncOff:    true,
			LowDelay:        true,
			RealTime:        true,
		},
		// Large buffers so the output reconfiguration does not stutter.
		model.IntentRecordingStart: {
			Name:            ProfileRecordingStart,
			NetworkCaching:  1000 * time.Millisecond,
			LiveCaching:     1000 * time.Millisecond,
			FileCaching:     1000 * time.Millisecond,
			MuxCaching:      500 * time.Millisecond,
			FrameBufferSize: 500000,
			Decode:          DecodeHardware,
			RTSPOverTCP:     true,
		},
		// Moderate buffers right after a handoff so the new surface does not under-buffer.
		model.IntentResume: {
			Name:            ProfileResume,
			NetworkCaching:  100 * time.Millisecond,
			LiveCaching:     100 * time.Millisecond,
			FileCaching:     100 * time.Millisecond,
			FrameBufferSize: 500000,
			Decode:          DecodeHardware,
			RTSPOverTCP:     true,
		},
	}
}

// Override replaces individual fields of a named profile. Nil fields keep the default.
type Override struct {
	NetworkCaching  *time.Duration `yaml:"networkCaching,omitempty"`
	LiveCaching     *time.Duration `yaml:"liveCaching,omitempty"`
	FileCaching     *time.Duration `yaml:"fileCaching,omitempty"`
	MuxCaching      *time.Duration `yaml:"muxCaching,omitempty"`
	FrameBufferSize *int           `yaml:"frameBufferSize,omitempty"`
	Decode          *DecodePath    `yaml:"decode,omitempty"`
	LowDelay        *bool          `yaml:"lowDelay,omitempty"`
}

func (o Override) apply(p ConnectionProfile) ConnectionProfile {
	if o.NetworkCaching != nil {
		p.NetworkCaching = *o.NetworkCaching
	}
	if o.LiveCaching != nil {
		p.LiveCaching = *o.LiveCaching
	}
	if o.FileCaching != nil {
		p.FileCaching = *o.FileCaching
	}
	if o.MuxCaching != nil {
		p.MuxCaching = *o.MuxCaching
	}
	if o.FrameBufferSize != nil {
		p.FrameBufferSize = *o.FrameBufferSize
	}
	if o.Decode != nil {
		p.Decode = *o.Decode
	}
	if o.LowDelay != nil {
		p.LowDelay = *o.LowDelay
	}
	return p
}

// Selector maps an intent to its connection profile. It is built once and
// never mutated, so Resolve is a pure function of the intent.
type Selector struct {
	table map[model.Intent]ConnectionProfile
}

// NewSelector builds a selector from the default table plus overrides keyed by
// intent name.
func NewSelector(overrides map[string]Override) Selector {
	table := defaultTable()
	for name, o := range overrides {
		intent, ok := ParseIntent(name)
		if !ok {
			continue
		}
		table[intent] = o.apply(table[intent])
	}
	return Selector{table: table}
}

// DefaultSelector returns a selector with the built-in profiles.
func DefaultSelector() Selector {
	return Selector{table: defaultTable()}
}

// Resolve returns the profile for intent. Unknown intents resolve to interactive.
func (s Selector) Resolve(intent model.Intent) ConnectionProfile {
	if s.table == nil {
		s.table = defaultTable()
	}
	if p, ok := s.table[intent]; ok {
		return p
	}
	return s.table[model.IntentInteractive]
}

// Resolve maps intent to a profile using the built-in table.
func Resolve(intent model.Intent) ConnectionProfile {
	return DefaultSelector().Resolve(intent)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"fmt"

	"github.com/ManuGH/pipview/internal/domain/session/model"
)

// EventKind is a domain event in the session lifecycle.
type EventKind int

const (
	EvUnknown EventKind = iota
	EvActivate
	EvPlaying
	EvRecordStart
	EvRecordStop
	EvDeactivate
	EvEngineError
	EvEndReached
	EvTeardown // forced deactivation after an engine fault
	EvDestroy  // owner destroyed; releases in any holding phase
)

var eventNames = [...]string{
	"unknown", "activate", "playing", "record_start", "record_stop",
	"deactivate", "engine_error", "end_reached", "teardown", "destroy",
}

func (e EventKind) String() string {
	if int(e) >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Event carries optional domain metadata for a transition.
type Event struct {
	Kind   EventKind
	Reason model.ReasonCode
	Detail string
}

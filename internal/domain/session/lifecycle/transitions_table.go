// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "github.com/ManuGH/pipview/internal/domain/session/model"

// Transition is a single allowed edge in the lifecycle state machine.
type Transition struct {
	From   model.Phase
	To     model.Phase
	Event  EventKind
	Reason model.ReasonCode
	Detail string
}

// Decision records whether a transition is allowed and why it is forbidden.
type Decision struct {
	Allowed bool
	Reason  string
}

var transitionsTable = []Transition{
	// Activation path
	{From: model.PhaseIdle, To: model.PhaseConnecting, Event: EvActivate},
	{From: model.PhaseError, To: model.PhaseConnecting, Event: EvActivate},
	{From: model.PhaseConnecting, To: model.PhasePlaying, Event: EvPlaying},

	// Recording
	{From: model.PhasePlaying, To: model.PhaseRecording, Event: EvRecordStart},
	{From: model.PhaseRecording, To: model.PhasePlaying, Event: EvRecordStop},

	// Caller-initiated deactivation
	{From: model.PhasePlaying, To: model.PhaseIdle, Event: EvDeactivate},
	{From: model.PhaseRecording, To: model.PhaseIdle, Event: EvDeactivate},

	// Engine faults
	{From: model.PhaseConnecting, To: model.PhaseError, Event: EvEngineError, Reason: model.REngineError},
	{From: model.PhasePlaying, To: model.PhaseError, Event: EvEngineError, Reason: model.REngineError},
	{From: model.PhaseRecording, To: model.PhaseError, Event: EvEngineError, Reason: model.REngineError},
	{From: model.PhaseError, To: model.PhaseIdle, Event: EvTeardown},

	// Stream ended (not an error)
	{From: model.PhaseConnecting, To: model.PhaseIdle, Event: EvEndReached, Reason: model.REndReached},
	{From: model.PhasePlaying, To: model.PhaseIdle, Event: EvEndReached, Reason: model.REndReached},
	{From: model.PhaseRecording, To: model.PhaseIdle, Event: EvEndReached, Reason: model.REndReached},

	// Owner destruction
	{From: model.PhaseConnecting, To: model.PhaseIdle, Event: EvDestroy, Reason: model.ROwnerDestroyed},
	{From: model.PhasePlaying, To: model.PhaseIdle, Event: EvDestroy, Reason: model.ROwnerDestroyed},
	{From: model.PhaseRecording, To: model.PhaseIdle, Event: EvDestroy, Reason: model.ROwnerDestroyed},
	{From: model.PhaseError, To: model.PhaseIdle, Event: EvDestroy, Reason: model.ROwnerDestroyed},
}

// TransitionFor returns the allowed transition for a given phase+event.
func TransitionFor(from model.Phase, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}

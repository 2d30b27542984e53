// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "github.com/ManuGH/pipview/internal/domain/session/model"

const (
	ForbiddenAlreadyInState = "already_in_state"
	ForbiddenOutOfOrder     = "out_of_order"
	ForbiddenRequiresIdle   = "requires_idle"
	ForbiddenRequiresLive   = "requires_live"
	ForbiddenRequiresEngine = "requires_engine"
	ForbiddenInFlight       = "activation_in_flight"
	ForbiddenNotRecording   = "not_recording"
)

func allowed() Decision        { return Decision{Allowed: true} }
func forbid(r string) Decision { return Decision{Allowed: false, Reason: r} }

// decisionTable defines an explicit decision for every Phase×Event combination.
var decisionTable = map[model.Phase]map[EventKind]Decision{
	model.PhaseIdle: {
		EvActivate:    allowed(),
		EvPlaying:     forbid(ForbiddenRequiresEngine),
		EvRecordStart: forbid(ForbiddenRequiresLive),
		EvRecordStop:  forbid(ForbiddenNotRecording),
		EvDeactivate:  forbid(ForbiddenAlreadyInState),
		EvEngineError: forbid(ForbiddenRequiresEngine),
		EvEndReached:  forbid(ForbiddenRequiresEngine),
		EvTeardown:    forbid(ForbiddenOutOfOrder),
		EvDestroy:     forbid(ForbiddenAlreadyInState),
	},
	model.PhaseConnecting: {
		EvActivate:    forbid(ForbiddenRequiresIdle),
		EvPlaying:     allowed(),
		EvRecordStart: forbid(ForbiddenRequiresLive),
		EvRecordStop:  forbid(ForbiddenNotRecording),
		EvDeactivate:  forbid(ForbiddenInFlight),
		EvEngineError: allowed(),
		EvEndReached:  allowed(),
		EvTeardown:    forbid(ForbiddenOutOfOrder),
		EvDestroy:     allowed(),
	},
	model.PhasePlaying: {
		EvActivate:    forbid(ForbiddenRequiresIdle),
		EvPlaying:     forbid(ForbiddenAlreadyInState),
		EvRecordStart: allowed(),
		EvRecordStop:  forbid(ForbiddenNotRecording),
		EvDeactivate:  allowed(),
		EvEngineError: allowed(),
		EvEndReached:  allowed(),
		EvTeardown:    forbid(ForbiddenOutOfOrder),
		EvDestroy:     allowed(),
	},
	model.PhaseRecording: {
		EvActivate:    forbid(ForbiddenRequiresIdle),
		EvPlaying:     forbid(ForbiddenAlreadyInState),
		EvRecordStart: forbid(ForbiddenAlreadyInState),
		EvRecordStop:  allowed(),
		EvDeactivate:  allowed(),
		EvEngineError: allowed(),
		EvEndReached:  allowed(),
		EvTeardown:    forbid(ForbiddenOutOfOrder),
		EvDestroy:     allowed(),
	},
	model.PhaseError: {
		EvActivate:    allowed(),
		EvPlaying:     forbid(ForbiddenOutOfOrder),
		EvRecordStart: forbid(ForbiddenRequiresLive),
		EvRecordStop:  forbid(ForbiddenNotRecording),
		EvDeactivate:  forbid(ForbiddenOutOfOrder),
		EvEngineError: forbid(ForbiddenAlreadyInState),
		EvEndReached:  forbid(ForbiddenOutOfOrder),
		EvTeardown:    allowed(),
		EvDestroy:     allowed(),
	},
}

// DecisionFor returns the explicit decision for a phase+event pair.
func DecisionFor(from model.Phase, ev EventKind) (Decision, bool) {
	row, ok := decisionTable[from]
	if !ok {
		return Decision{}, false
	}
	d, ok := row[ev]
	return d, ok
}

// ForbiddenTransitionReason documents why a transition is disallowed.
func ForbiddenTransitionReason(from model.Phase, ev EventKind) string {
	decision, ok := DecisionFor(from, ev)
	if !ok || decision.Allowed {
		return ""
	}
	return decision.Reason
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"fmt"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/model"
)

// IllegalTransitionError is returned when an event is not allowed in the
// current phase. The state is left untouched.
type IllegalTransitionError struct {
	From   model.Phase
	Event  EventKind
	Reason string
}

func (e *IllegalTransitionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("illegal transition: %s + %s", e.From, e.Event)
	}
	return fmt.Sprintf("illegal transition: %s + %s (%s)", e.From, e.Event, e.Reason)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalPhase }

// Dispatch resolves the next transition from the tables and applies it to st.
// It is the only place phases change.
func Dispatch(st *model.SessionState, ev Event, now time.Time) (Transition, error) {
	decision, ok := DecisionFor(st.Phase, ev.Kind)
	if !ok || !decision.Allowed {
		return Transition{}, &IllegalTransitionError{From: st.Phase, Event: ev.Kind, Reason: decision.Reason}
	}
	tr, ok := TransitionFor(st.Phase, ev.Kind)
	if !ok {
		return Transition{}, &IllegalTransitionError{From: st.Phase, Event: ev.Kind}
	}
	if ev.Reason != "" {
		tr.Reason = ev.Reason
	}
	if ev.Detail != "" {
		tr.Detail = ev.Detail
	}
	ApplyTransition(st, tr, now)
	return tr, nil
}

// ApplyTransition mutates the session state according to the transition.
func ApplyTransition(st *model.SessionState, tr Transition, now time.Time) {
	st.Phase = tr.To
	switch tr.To {
	case model.PhaseIdle:
		// Idle keeps the reason of how it got here, but drops the address so a
		// new activation can bind a different source.
		st.Reason = tr.Reason
		st.SourceAddress = ""
		st.BufferingPct = 0
	case model.PhaseError:
		st.Reason = tr.Reason
	case model.PhaseConnecting:
		st.Reason = model.RNone
		st.StartedAt = now
	}
	st.UpdatedAt = now
}

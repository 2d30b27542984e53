// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"

	"github.com/ManuGH/pipview/internal/domain/session/model"
)

var (
	ErrEngineInit             = errors.New("engine init failed")
	ErrConnectFailed          = errors.New("connect failed")
	ErrPermissionDenied       = errors.New("storage permission denied")
	ErrRecordingAlreadyActive = errors.New("recording already active")
	ErrNotRecording           = errors.New("not recording")
	ErrIllegalPhase           = errors.New("illegal phase for operation")
	ErrActivationInFlight     = errors.New("activation in flight")
	ErrClosed                 = errors.New("session controller closed")
	ErrUnknown                = errors.New("unknown session error")
)

// ReasonErrorClass maps a reason code to its sentinel error class.
func ReasonErrorClass(reason model.ReasonCode) error {
	switch reason {
	case model.REngineInit:
		return ErrEngineInit
	case model.RConnectFailed, model.RConnectTimeout, model.REngineError:
		return ErrConnectFailed
	case model.RPermissionDenied:
		return ErrPermissionDenied
	case model.RRecordingActive:
		return ErrRecordingAlreadyActive
	case model.RNotRecording:
		return ErrNotRecording
	case model.RIllegalPhase:
		return ErrIllegalPhase
	case model.RNone, model.REndReached, model.ROwnerDestroyed:
		return nil
	default:
		return ErrUnknown
	}
}

// IsProgrammerError reports whether err belongs to the log-and-no-op class.
func IsProgrammerError(err error) bool {
	return errors.Is(err, ErrRecordingAlreadyActive) || errors.Is(err, ErrNotRecording)
}

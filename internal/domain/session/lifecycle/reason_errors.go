// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"
	"strings"

	"github.com/ManuGH/pipview/internal/domain/session/model"
)

type reasonError struct {
	reason model.ReasonCode
	detail string
	err    error
}

func (e *reasonError) Error() string {
	class := ReasonErrorClass(e.reason)
	var b strings.Builder
	if class != nil {
		b.WriteString(class.Error())
	} else {
		b.WriteString(strings.ToLower(string(e.reason)))
	}
	if e.detail != "" {
		b.WriteString(": ")
		b.WriteString(e.detail)
	}
	if e.err != nil {
		b.WriteString(": ")
		b.WriteString(e.err.Error())
	}
	return b.String()
}

func (e *reasonError) Is(target error) bool {
	if target == nil {
		return false
	}
	class := ReasonErrorClass(e.reason)
	return class != nil && target == class
}

func (e *reasonError) Unwrap() error {
	return e.err
}

// NewReasonError builds an error matching the class of reason via errors.Is.
func NewReasonError(reason model.ReasonCode, detail string, err error) error {
	return &reasonError{
		reason: reason,
		detail: sanitizeDetail(detail),
		err:    err,
	}
}

// ReasonFromError extracts the reason code carried by err, if any.
func ReasonFromError(err error) (model.ReasonCode, string, bool) {
	var rerr *reasonError
	if errors.As(err, &rerr) {
		return rerr.reason, rerr.detail, true
	}
	return "", "", false
}

// ClassifyReason returns the reason for err, falling back to RUnknown.
func ClassifyReason(err error) model.ReasonCode {
	if err == nil {
		return model.RNone
	}
	if reason, _, ok := ReasonFromError(err); ok {
		return reason
	}
	var ill *IllegalTransitionError
	if errors.As(err, &ill) {
		return model.RIllegalPhase
	}
	switch {
	case errors.Is(err, ErrEngineInit):
		return model.REngineInit
	case errors.Is(err, ErrConnectFailed):
		return model.RConnectFailed
	case errors.Is(err, ErrPermissionDenied):
		return model.RPermissionDenied
	case errors.Is(err, ErrRecordingAlreadyActive):
		return model.RRecordingActive
	case errors.Is(err, ErrNotRecording):
		return model.RNotRecording
	}
	return model.RUnknown
}

func sanitizeDetail(detail string) string {
	if detail == "" {
		return ""
	}
	const maxLen = 160
	clean := strings.ReplaceAll(detail, "\n", " ")
	if len(clean) > maxLen {
		return clean[:maxLen] + "..."
	}
	return clean
}

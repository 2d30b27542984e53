// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/pipview/internal/domain/session/lifecycle"
	"github.com/ManuGH/pipview/internal/domain/session/model"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/ManuGH/pipview/internal/surface"
	"github.com/ManuGH/pipview/internal/viewer"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error     string           `json:"error"`
	Reason    model.ReasonCode `json:"reason,omitempty"`
	Detail    string           `json:"detail,omitempty"`
	RequestID string           `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:     "bad_request",
		Detail:    detail,
		RequestID: xglog.RequestIDFromContext(r.Context()),
	})
}

// statusFor maps domain errors onto HTTP status codes and stable error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, lifecycle.ErrPermissionDenied):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, lifecycle.ErrRecordingAlreadyActive):
		return http.StatusConflict, "recording_active"
	case errors.Is(err, lifecycle.ErrNotRecording):
		return http.StatusConflict, "not_recording"
	case errors.Is(err, lifecycle.ErrActivationInFlight):
		return http.StatusConflict, "activation_in_flight"
	case errors.Is(err, lifecycle.ErrIllegalPhase),
		errors.Is(err, viewer.ErrAlreadyInOverlay),
		errors.Is(err, viewer.ErrNotInOverlay):
		return http.StatusConflict, "illegal_phase"
	case errors.Is(err, lifecycle.ErrEngineInit), errors.Is(err, lifecycle.ErrConnectFailed):
		return http.StatusBadGateway, "engine_failed"
	case errors.Is(err, lifecycle.ErrClosed), errors.Is(err, viewer.ErrClosed), errors.Is(err, surface.ErrDestroyed):
		return http.StatusServiceUnavailable, "closed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code, name := statusFor(err)
	resp := errorResponse{
		Error:     name,
		Detail:    err.Error(),
		RequestID: xglog.RequestIDFromContext(r.Context()),
	}
	if reason, _, ok := lifecycle.ReasonFromError(err); ok {
		resp.Reason = reason
	}
	if code >= http.StatusInternalServerError {
		logger := xglog.WithContext(r.Context(), xglog.WithComponent("api"))
		logger.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, code, resp)
}

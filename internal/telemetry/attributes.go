// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by session spans.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	SessionIDKey      = "session.id"
	SessionSurfaceKey = "session.surface"
	SessionPhaseKey   = "session.phase"
	SessionProfileKey = "session.profile"
	SessionAddressKey = "session.address"
	SessionResumeKey  = "session.resume"
	SessionPosKey     = "session.position_ms"

	RecordingTargetKey   = "recording.target"
	RecordingDurationKey = "recording.duration_ms"
	RecordingPartialKey  = "recording.partial"

	HandoffForKey = "handoff.for_handoff"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates control API span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// SessionAttributes creates session span attributes. Empty values are skipped;
// address must already be masked.
func SessionAttributes(sessionID, surface, profile, address string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if sessionID != "" {
		attrs = append(attrs, attribute.String(SessionIDKey, sessionID))
	}
	if surface != "" {
		attrs = append(attrs, attribute.String(SessionSurfaceKey, surface))
	}
	if profile != "" {
		attrs = append(attrs, attribute.String(SessionProfileKey, profile))
	}
	if address != "" {
		attrs = append(attrs, attribute.String(SessionAddressKey, address))
	}
	return attrs
}

// RecordingAttributes creates recording span attributes.
func RecordingAttributes(target string, durationMS int64, partial bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(RecordingTargetKey, target),
		attribute.Int64(RecordingDurationKey, durationMS),
		attribute.Bool(RecordingPartialKey, partial),
	}
}

// ErrorAttributes creates error span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSessionAttributes_SkipsEmpty(t *testing.T) {
	attrs := SessionAttributes("s-1", "", "overlay", "")
	assert.Equal(t, []attribute.KeyValue{
		attribute.String(SessionIDKey, "s-1"),
		attribute.String(SessionProfileKey, "overlay"),
	}, attrs)
}

func TestRecordingAttributes(t *testing.T) {
	attrs := RecordingAttributes("/out.mp4", 1500, true)
	assert.Len(t, attrs, 3)
	assert.Equal(t, attribute.Bool(RecordingPartialKey, true), attrs[2])
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes("CONNECT_FAILED")
	assert.Equal(t, attribute.String(ErrorTypeKey, "CONNECT_FAILED"), attrs[1])
}

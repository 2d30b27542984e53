// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseHelpers_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PIPVIEW_T_INT", "many")
	t.Setenv("PIPVIEW_T_DUR", "soon")
	t.Setenv("PIPVIEW_T_BOOL", "maybe")
	t.Setenv("PIPVIEW_T_FLOAT", "half")

	assert.Equal(t, 7, ParseInt("PIPVIEW_T_INT", 7))
	assert.Equal(t, 3*time.Second, ParseDuration("PIPVIEW_T_DUR", 3*time.Second))
	assert.True(t, ParseBool("PIPVIEW_T_BOOL", true))
	assert.InDelta(t, 0.25, ParseFloat("PIPVIEW_T_FLOAT", 0.25), 1e-9)
}

func TestParseHelpers_ValidValues(t *testing.T) {
	t.Setenv("PIPVIEW_T_INT", "42")
	t.Setenv("PIPVIEW_T_DUR", "1500ms")
	t.Setenv("PIPVIEW_T_BOOL", "yes")
	t.Setenv("PIPVIEW_T_FLOAT", "0.5")
	t.Setenv("PIPVIEW_T_STR", "value")

	assert.Equal(t, 42, ParseInt("PIPVIEW_T_INT", 7))
	assert.Equal(t, 1500*time.Millisecond, ParseDuration("PIPVIEW_T_DUR", time.Second))
	assert.True(t, ParseBool("PIPVIEW_T_BOOL", false))
	assert.InDelta(t, 0.5, ParseFloat("PIPVIEW_T_FLOAT", 0), 1e-9)
	assert.Equal(t, "value", ParseString("PIPVIEW_T_STR", "def"))
	assert.Equal(t, "def", ParseString("PIPVIEW_T_UNSET", "def"))
}

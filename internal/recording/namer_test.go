// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recording

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamer_TimestampedTarget(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Movies")
	n := Namer{Dir: dir, Now: func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }}

	target, err := n.NextTarget()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Recording_20250102_030405.mp4"), target)

	require.NoError(t, os.WriteFile(target, nil, 0o600))
	next, err := n.NextTarget()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Recording_20250102_030405_1.mp4"), next)
}

func TestNamer_RequiresDir(t *testing.T) {
	_, err := Namer{}.NextTarget()
	require.Error(t, err)
}

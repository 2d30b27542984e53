// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recording

import (
	"context"
	"testing"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/stretchr/testify/require"
)

func TestLogSink_Index(t *testing.T) {
	err := NewLogSink().Index(context.Background(), model.ArtifactHandle{
		OutputTarget:  "/rec/a.mp4",
		SourceAddress: "rtsp://user:pw@cam/1",
		Duration:      3 * time.Second,
		Partial:       true,
	})
	require.NoError(t, err)
}

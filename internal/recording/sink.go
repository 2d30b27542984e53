// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recording

import (
	"context"

	"github.com/ManuGH/pipview/internal/domain/session/model"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/rs/zerolog"
)

// LogSink hands finished recordings to the log. Indexing proper lives
// outside this process.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink returns a sink logging under the "recording" component.
func NewLogSink() LogSink {
	return LogSink{logger: xglog.WithComponent("recording")}
}

func (s LogSink) Index(_ context.Context, a model.ArtifactHandle) error {
	s.logger.Info().
		Str(xglog.FieldEvent, "recording.finished").
		Str(xglog.FieldTarget, a.OutputTarget).
		Str(xglog.FieldAddress, xglog.MaskAddress(a.SourceAddress)).
		Int64(xglog.FieldElapsedMS, a.Duration.Milliseconds()).
		Bool("partial", a.Partial).
		Msg("recording ready for indexing")
	return nil
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromhttpExposesCollectors(t *testing.T) {
	RecordTransition("IDLE", "CONNECTING", "")
	ObserveHandoffOp("memory", "publish", "ok", time.Millisecond)

	srv := httptest.NewServer(promhttp.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "pipview_session_transitions_total")
	assert.Contains(t, string(body), "pipview_handoff_ops_total")
}

func TestRecordTransition_EmptyReasonIsNone(t *testing.T) {
	c := SessionTransitions.WithLabelValues("PLAYING", "IDLE", "none")
	before := testutil.ToFloat64(c)
	RecordTransition("PLAYING", "IDLE", "")
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestHandleOpenedAndReleased(t *testing.T) {
	open := testutil.ToFloat64(EngineHandlesOpen)
	released := testutil.ToFloat64(EngineReleases.WithLabelValues("handoff"))

	HandleOpened()
	HandleOpened()
	HandleReleased("handoff")

	assert.Equal(t, open+1, testutil.ToFloat64(EngineHandlesOpen))
	assert.Equal(t, released+1, testutil.ToFloat64(EngineReleases.WithLabelValues("handoff")))
	HandleReleased("test_cleanup")
}

func TestSessionCounters(t *testing.T) {
	tests := []struct {
		name   string
		record func()
		read   func() float64
	}{
		{
			name:   "activation",
			record: func() { RecordActivation("overlay", "connecting") },
			read:   func() float64 { return testutil.ToFloat64(SessionActivations.WithLabelValues("overlay", "connecting")) },
		},
		{
			name:   "diagnostic",
			record: func() { RecordDiagnostic("not_recording") },
			read:   func() float64 { return testutil.ToFloat64(SessionDiagnostics.WithLabelValues("not_recording")) },
		},
		{
			name:   "partial recording",
			record: func() { RecordRecordingFinished(true, 3*time.Second) },
			read:   func() float64 { return testutil.ToFloat64(RecordingsFinished.WithLabelValues("true")) },
		},
		{
			name:   "complete recording",
			record: func() { RecordRecordingFinished(false, time.Minute) },
			read:   func() float64 { return testutil.ToFloat64(RecordingsFinished.WithLabelValues("false")) },
		},
		{
			name:   "handoff overwrite",
			record: func() { IncHandoffOverwrite("memory") },
			read:   func() float64 { return testutil.ToFloat64(handoffOverwrites.WithLabelValues("memory")) },
		},
		{
			name:   "handoff stale",
			record: func() { IncHandoffStale("redis") },
			read:   func() float64 { return testutil.ToFloat64(handoffStale.WithLabelValues("redis")) },
		},
		{
			name:   "handoff op",
			record: func() { ObserveHandoffOp("sqlite", "consume", "empty", time.Millisecond) },
			read: func() float64 {
				return testutil.ToFloat64(handoffOps.WithLabelValues("sqlite", "consume", "empty"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.read()
			tt.record()
			assert.Equal(t, before+1, tt.read())
		})
	}
}

func TestHistogramsObserve(t *testing.T) {
	before := testutil.CollectAndCount(SessionConnectLatency)
	ObserveConnectLatency("interactive-hist-test", 250*time.Millisecond)
	assert.Equal(t, before+1, testutil.CollectAndCount(SessionConnectLatency))
}

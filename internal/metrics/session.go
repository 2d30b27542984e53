// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionTransitions counts applied phase transitions.
	SessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipview_session_transitions_total",
		Help: "Applied session phase transitions",
	}, []string{"from", "to", "reason"})

	// SessionActivations counts activation outcomes by profile.
	SessionActivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipview_session_activations_total",
		Help: "Session activation attempts by profile and result",
	}, []string{"profile", "result"})

	// SessionConnectLatency tracks the time from activate to the first Playing event.
	SessionConnectLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipview_session_connect_latency_seconds",
		Help:    "Time from activation to first playing event",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"profile"})

	// EngineHandlesOpen is the number of engine handles currently held.
	EngineHandlesOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pipview_engine_handles_open",
		Help: "Engine handles currently held by session controllers",
	})

	// EngineReleases counts handle releases by cause.
	EngineReleases = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipview_engine_releases_total",
		Help: "Engine handle releases by cause",
	}, []string{"cause"})

	// SessionDiagnostics counts programmer-error class calls that were logged and ignored.
	SessionDiagnostics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipview_session_diagnostics_total",
		Help: "Ignored calls (recording already active, not recording, double deactivate)",
	}, []string{"kind"})

	// RecordingsFinished counts finished recordings.
	RecordingsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipview_recordings_finished_total",
		Help: "Finished recordings by completeness",
	}, []string{"partial"})

	// RecordingDuration tracks recorded durations.
	RecordingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipview_recording_duration_seconds",
		Help:    "Duration of finished recordings",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
	})
)

// RecordTransition records one applied phase transition.
func RecordTransition(from, to, reason string) {
	if reason == "" {
		reason = "none"
	}
	SessionTransitions.WithLabelValues(from, to, reason).Inc()
}

// RecordActivation records an activation outcome.
func RecordActivation(profile, result string) {
	SessionActivations.WithLabelValues(profile, result).Inc()
}

// ObserveConnectLatency records the connect latency for a profile.
func ObserveConnectLatency(profile string, d time.Duration) {
	SessionConnectLatency.WithLabelValues(profile).Observe(d.Seconds())
}

// HandleOpened marks a new engine handle.
func HandleOpened() { EngineHandlesOpen.Inc() }

// HandleReleased marks a released engine handle.
func HandleReleased(cause string) {
	EngineHandlesOpen.Dec()
	EngineReleases.WithLabelValues(cause).Inc()
}

// RecordDiagnostic counts an ignored programmer-error class call.
func RecordDiagnostic(kind string) {
	SessionDiagnostics.WithLabelValues(kind).Inc()
}

// RecordRecordingFinished records a finished recording.
func RecordRecordingFinished(partial bool, d time.Duration) {
	label := "false"
	if partial {
		label = "true"
	}
	RecordingsFinished.WithLabelValues(label).Inc()
	RecordingDuration.Observe(d.Seconds())
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	handoffOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipview_handoff_ops_total",
		Help: "Handoff store operations by backend, op and result",
	}, []string{"backend", "op", "result"})

	handoffOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipview_handoff_op_duration_seconds",
		Help:    "Handoff store operation latency",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"backend", "op"})

	handoffOverwrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipview_handoff_overwrites_total",
		Help: "Publishes that replaced an unconsumed entry",
	}, []string{"backend"})

	handoffStale = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipview_handoff_stale_discarded_total",
		Help: "Consumed entries discarded for exceeding the max age",
	}, []string{"backend"})
)

// ObserveHandoffOp records one store operation. result is "ok", "empty" or "error".
func ObserveHandoffOp(backend, op, result string, d time.Duration) {
	handoffOps.WithLabelValues(backend, op, result).Inc()
	handoffOpDuration.WithLabelValues(backend, op).Observe(d.Seconds())
}

// IncHandoffOverwrite counts a last-writer-wins overwrite.
func IncHandoffOverwrite(backend string) {
	handoffOverwrites.WithLabelValues(backend).Inc()
}

// IncHandoffStale counts a stale entry dropped on consume.
func IncHandoffStale(backend string) {
	handoffStale.WithLabelValues(backend).Inc()
}

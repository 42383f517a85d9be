// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ModeTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chuck_mode_transitions_total",
		Help: "Mode changes by source and target mode",
	}, []string{"from", "to"})

	CurrentMode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chuck_mode",
		Help: "1 for the current operating mode, 0 otherwise",
	}, []string{"mode"})

	ChaseDelaySeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chuck_chase_delay_seconds",
		Help: "Current chase step delay",
	})

	WorkerStartsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chuck_worker_starts_total",
		Help: "Background worker starts by kind",
	}, []string{"worker"})

	WorkersActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chuck_workers_active",
		Help: "Live background workers by kind",
	}, []string{"worker"})

	SceneCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chuck_scenes",
		Help: "Number of stored scenes",
	})

	ProfileReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chuck_profile_reloads_total",
		Help: "Profile set file reloads by outcome",
	}, []string{"outcome"}) // outcome=success|failure
)

// RecordTransition records a mode change and moves the current-mode gauge.
func RecordTransition(from, to string) {
	ModeTransitionsTotal.WithLabelValues(from, to).Inc()
	CurrentMode.WithLabelValues(from).Set(0)
	CurrentMode.WithLabelValues(to).Set(1)
}

// SetMode marks mode as current without counting a transition.
func SetMode(mode string) {
	CurrentMode.WithLabelValues(mode).Set(1)
}

// SetChaseDelay records the chase delay in seconds.
func SetChaseDelay(seconds float64) {
	ChaseDelaySeconds.Set(seconds)
}

// WorkerStarted records a worker start.
func WorkerStarted(kind string) {
	WorkerStartsTotal.WithLabelValues(kind).Inc()
	WorkersActive.WithLabelValues(kind).Inc()
}

// WorkerStopped records a worker exit.
func WorkerStopped(kind string) {
	WorkersActive.WithLabelValues(kind).Dec()
}

// SetSceneCount records the number of stored scenes.
func SetSceneCount(n int) {
	SceneCount.Set(float64(n))
}

// IncProfileReload records a profile set reload.
func IncProfileReload(outcome string) {
	ProfileReloadsTotal.WithLabelValues(outcome).Inc()
}

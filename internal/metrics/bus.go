// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics registers the Prometheus collectors for every component.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chuck_command_queue_depth",
		Help: "Number of decoded commands waiting for the controller",
	})

	QueueDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chuck_command_queue_dropped_total",
		Help: "Total number of commands that could not be handed off, by reason",
	}, []string{"reason"})
)

// SetQueueDepth records the current hand-off queue length.
func SetQueueDepth(n int) {
	QueueDepth.Set(float64(n))
}

// IncQueueDrop records a command that was not enqueued.
func IncQueueDrop(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	QueueDroppedTotal.WithLabelValues(reason).Inc()
}

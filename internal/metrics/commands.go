// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DatagramsReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chuck_datagrams_received_total",
		Help: "Total number of datagrams read from the command socket",
	})

	DecodeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chuck_decode_failures_total",
		Help: "Total number of datagrams dropped because they failed to decode",
	})

	CommandsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chuck_commands_processed_total",
		Help: "Commands processed by the controller by packet kind and action",
	}, []string{"packet", "action"})

	InvalidTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chuck_invalid_transitions_total",
		Help: "User actions without a handler in the current mode",
	}, []string{"mode", "action"})
)

// IncDatagram records one received datagram.
func IncDatagram() {
	DatagramsReceivedTotal.Inc()
}

// IncDecodeFailure records a malformed datagram.
func IncDecodeFailure() {
	DecodeFailuresTotal.Inc()
}

// IncCommandProcessed records a command handled by the controller.
func IncCommandProcessed(packet, action string) {
	CommandsProcessedTotal.WithLabelValues(packet, action).Inc()
}

// IncInvalidTransition records an action that the current mode ignores.
func IncInvalidTransition(mode, action string) {
	InvalidTransitionsTotal.WithLabelValues(mode, action).Inc()
}

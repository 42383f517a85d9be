// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DMXWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chuck_dmx_writes_total",
		Help: "Successful DMX port writes by lease holder and operation",
	}, []string{"holder", "op"}) // op=frame|channel

	DMXWriteErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chuck_dmx_write_errors_total",
		Help: "Failed DMX port writes by lease holder",
	}, []string{"holder"})

	DMXLeaseHeld = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chuck_dmx_lease_held",
		Help: "1 while a writer holds the DMX port",
	})

	HeartbeatsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chuck_heartbeats_sent_total",
		Help: "Heartbeat datagrams sent by trigger",
	}, []string{"trigger"}) // trigger=push|ping

	HeartbeatErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chuck_heartbeat_errors_total",
		Help: "Heartbeat datagrams that failed to send",
	})

	ControllerConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chuck_controller_connected",
		Help: "1 once the controller address has been learned",
	})
)

// IncDMXWrite records a successful port write.
func IncDMXWrite(holder, op string) {
	DMXWritesTotal.WithLabelValues(holder, op).Inc()
}

// IncDMXWriteError records a failed port write.
func IncDMXWriteError(holder string) {
	DMXWriteErrorsTotal.WithLabelValues(holder).Inc()
}

// SetDMXHolder marks the port as held (non-empty name) or free.
func SetDMXHolder(name string) {
	if name == "" {
		DMXLeaseHeld.Set(0)
		return
	}
	DMXLeaseHeld.Set(1)
}

// IncHeartbeat records a sent heartbeat.
func IncHeartbeat(trigger string) {
	HeartbeatsSentTotal.WithLabelValues(trigger).Inc()
}

// IncHeartbeatError records a heartbeat send failure.
func IncHeartbeatError() {
	HeartbeatErrorsTotal.Inc()
}

// SetControllerConnected records whether the controller address is known.
func SetControllerConnected(ok bool) {
	if ok {
		ControllerConnected.Set(1)
		return
	}
	ControllerConnected.Set(0)
}

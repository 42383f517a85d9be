// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package heartbeat tells the handheld controller which mode the server is in
// and keeps pinging it so the controller can tell when the server is gone.
package heartbeat

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/chuck/internal/command"
	"github.com/ManuGH/chuck/internal/log"
	"github.com/ManuGH/chuck/internal/metrics"
	"github.com/ManuGH/chuck/internal/mode"
)

// DefaultInterval is the ping period when none is configured.
const DefaultInterval = time.Second

// Sender writes a datagram to a UDP peer. *net.UDPConn satisfies it.
type Sender interface {
	WriteToUDPAddrPort(b []byte, addr netip.AddrPort) (int, error)
}

// Payload encodes a heartbeat datagram for m.
func Payload(m mode.Mode) []byte {
	return []byte{byte(command.PacketHeartbeat), m.Code()}
}

// ParsePayload decodes a heartbeat datagram.
func ParsePayload(b []byte) (mode.Mode, error) {
	if len(b) < 2 || command.PacketKind(b[0]) != command.PacketHeartbeat {
		return 0, fmt.Errorf("%w: not a heartbeat datagram", command.ErrDecode)
	}
	return mode.FromCode(b[1])
}

// Heartbeat tracks the controller address and the mode last reported to it.
type Heartbeat struct {
	conn     Sender
	interval time.Duration
	logger   zerolog.Logger

	mu        sync.Mutex
	addr      netip.AddrPort
	connected bool
	mode      mode.Mode
}

// New returns a heartbeat that sends through conn.
func New(conn Sender, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Heartbeat{
		conn:     conn,
		interval: interval,
		logger:   log.WithComponent("heartbeat"),
		mode:     mode.Idle,
	}
}

// Observe adopts addr as the controller address the first time it is called.
// It reports whether addr was adopted.
func (h *Heartbeat) Observe(addr netip.AddrPort) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.connected || !addr.IsValid() {
		return false
	}
	h.addr = addr
	h.connected = true
	metrics.SetControllerConnected(true)
	h.logger.Info().
		Str(log.FieldEvent, "heartbeat.controller_connected").
		Str(log.FieldSender, addr.String()).
		Msg("controller address learned")
	return true
}

// Connected reports whether a controller address is known.
func (h *Heartbeat) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected
}

// Address returns the controller address, if known.
func (h *Heartbeat) Address() (netip.AddrPort, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addr, h.connected
}

// SetMode records the mode to report.
func (h *Heartbeat) SetMode(m mode.Mode) {
	h.mu.Lock()
	h.mode = m
	h.mu.Unlock()
}

// Mode returns the mode that is being reported.
func (h *Heartbeat) Mode() mode.Mode {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mode
}

// Push sends the current mode to the controller now. It is a no-op until a
// controller has been observed.
func (h *Heartbeat) Push() error {
	return h.send("push")
}

func (h *Heartbeat) send(trigger string) error {
	h.mu.Lock()
	addr, ok, m := h.addr, h.connected, h.mode
	h.mu.Unlock()
	if !ok {
		return nil
	}
	if _, err := h.conn.WriteToUDPAddrPort(Payload(m), addr); err != nil {
		metrics.IncHeartbeatError()
		return fmt.Errorf("send heartbeat to %s: %w", addr, err)
	}
	metrics.IncHeartbeat(trigger)
	h.logger.Trace().
		Str(log.FieldEvent, "heartbeat.sent").
		Str("trigger", trigger).
		Str(log.FieldMode, m.String()).
		Msg("heartbeat sent")
	return nil
}

// Run pings the controller every interval until ctx ends. Send failures are
// logged and the schedule continues.
func (h *Heartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Info().
		Str(log.FieldEvent, "heartbeat.started").
		Dur("interval", h.interval).
		Msg("heartbeat started")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "heartbeat.stopped").Msg("heartbeat stopped")
			return nil
		case <-ticker.C:
			if err := h.send("ping"); err != nil {
				h.logger.Warn().Err(err).Str(log.FieldEvent, "heartbeat.send_failed").Msg("heartbeat ping failed")
			}
		}
	}
}

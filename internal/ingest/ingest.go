// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ingest receives command datagrams from the controller and hands the
// decoded commands to the orchestrator queue.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"
	"golang.org/x/time/rate"

	"github.com/ManuGH/chuck/internal/command"
	"github.com/ManuGH/chuck/internal/log"
	"github.com/ManuGH/chuck/internal/metrics"
	"github.com/ManuGH/chuck/internal/queue"
)

// MaxDatagram is the receive buffer size; commands are a few bytes.
const MaxDatagram = 512

// tosExpedited is the DSCP EF code point shifted into the TOS byte.
const tosExpedited = 0xB8

// Receiver is the UDP receive loop.
type Receiver struct {
	conn   *net.UDPConn
	queue  *queue.Queue
	logger zerolog.Logger

	invalidLog rate.Sometimes
}

// New returns a receiver reading from conn and pushing onto q.
func New(conn *net.UDPConn, q *queue.Queue) *Receiver {
	return &Receiver{
		conn:       conn,
		queue:      q,
		logger:     log.WithComponent("ingest"),
		invalidLog: rate.Sometimes{First: 5, Interval: 10 * time.Second},
	}
}

// Run receives until ctx ends or the socket fails. Cancellation unblocks a
// pending receive by moving the read deadline into the past.
func (r *Receiver) Run(ctx context.Context) error {
	// The thread is never unlocked so that, if it was reniced, it exits with
	// the goroutine instead of going back to the scheduler's pool.
	runtime.LockOSThread()
	r.elevate()

	stop := context.AfterFunc(ctx, func() {
		_ = r.conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	r.logger.Info().
		Str(log.FieldEvent, "ingest.started").
		Str("listen", r.conn.LocalAddr().String()).
		Msg("command ingestion started")

	buf := make([]byte, MaxDatagram)
	for {
		n, sender, err := r.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if ctx.Err() != nil {
				r.logger.Info().Str(log.FieldEvent, "ingest.stopped").Msg("command ingestion stopped")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("receive command: %w", err)
		}
		metrics.IncDatagram()

		cmd, err := command.Decode(buf[:n], sender)
		if err != nil {
			metrics.IncDecodeFailure()
			r.invalidLog.Do(func() {
				r.logger.Warn().
					Err(err).
					Str(log.FieldEvent, "ingest.decode_failed").
					Str(log.FieldSender, sender.String()).
					Hex("payload", buf[:n]).
					Msg("dropping malformed datagram")
			})
			continue
		}

		if err := r.queue.Push(ctx, cmd); err != nil {
			if ctx.Err() != nil {
				r.logger.Info().Str(log.FieldEvent, "ingest.stopped").Msg("command ingestion stopped")
				return nil
			}
			return err
		}
	}
}

// elevate marks outgoing traffic as expedited and raises the receive thread's
// scheduling priority. Both need privileges the daemon may not have, so
// failures are only logged.
func (r *Receiver) elevate() {
	if err := ipv4.NewConn(r.conn).SetTOS(tosExpedited); err != nil {
		r.logger.Debug().Err(err).Str(log.FieldEvent, "ingest.tos_failed").Msg("could not set DSCP on command socket")
	}
	if err := raiseThreadPriority(); err != nil {
		r.logger.Debug().Err(err).Str(log.FieldEvent, "ingest.priority_failed").Msg("could not raise ingestion thread priority")
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package queue is the bounded FIFO hand-off between command ingestion and the
// orchestrator.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ManuGH/chuck/internal/command"
	"github.com/ManuGH/chuck/internal/log"
	"github.com/ManuGH/chuck/internal/metrics"
)

// DefaultSize is the queue capacity when none is configured.
const DefaultSize = 64

const dropLogEvery = 100

var dropCount atomic.Uint64

// Queue is a single-producer, single-consumer command queue. Order is
// preserved; nothing is coalesced.
type Queue struct {
	ch chan command.Command
}

// New returns a queue holding at most size commands.
func New(size int) *Queue {
	if size <= 0 {
		size = DefaultSize
	}
	return &Queue{ch: make(chan command.Command, size)}
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "context_done"
	}
}

// Push enqueues c, blocking while the queue is full until ctx ends.
func (q *Queue) Push(ctx context.Context, c command.Command) error {
	if ctx == nil {
		return fmt.Errorf("push context is nil")
	}
	select {
	case q.ch <- c:
		metrics.SetQueueDepth(len(q.ch))
		return nil
	case <-ctx.Done():
		reason := dropReason(ctx.Err())
		metrics.IncQueueDrop(reason)
		if n := dropCount.Add(1); n%dropLogEvery == 0 {
			log.L().Warn().
				Str(log.FieldEvent, "queue.dropped").
				Str("reason", reason).
				Uint64("dropped", n).
				Msg("command queue dropped commands on context end")
		}
		return fmt.Errorf("push command: %w", ctx.Err())
	}
}

// Pop waits up to timeout for the next command. ok is false when the timeout
// lapsed with nothing queued; err is set only when ctx ended.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (c command.Command, ok bool, err error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c = <-q.ch:
		metrics.SetQueueDepth(len(q.ch))
		return c, true, nil
	case <-timer.C:
		return command.Command{}, false, nil
	case <-ctx.Done():
		return command.Command{}, false, ctx.Err()
	}
}

// Len returns the number of queued commands.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package worker runs the background lighting effects. Each worker holds the
// DMX write lease for its whole lifetime, so two workers can never write at
// once, and stops promptly when asked even in the middle of a sleep.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/chuck/internal/dmx"
	"github.com/ManuGH/chuck/internal/log"
	"github.com/ManuGH/chuck/internal/metrics"
)

// Kind names a worker type.
type Kind string

const (
	KindChase     Kind = "chase"
	KindHighlight Kind = "highlight"
	KindPreset    Kind = "preset"
)

// Worker is the lifecycle handle shared by all workers.
type Worker interface {
	Kind() Kind
	// Stop requests exit and returns without waiting.
	Stop()
	// Wait blocks until the worker has exited and returns its error.
	Wait() error
	// Done is closed once the worker has exited.
	Done() <-chan struct{}
}

// StopAndWait stops w and joins it. Cancellation is not reported as an error.
func StopAndWait(w Worker) error {
	w.Stop()
	return w.Wait()
}

// task is the cancellable goroutine behind every worker.
type task struct {
	kind   Kind
	runID  string
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func startTask(parent context.Context, kind Kind, run func(ctx context.Context, logger zerolog.Logger) error) *task {
	runID := uuid.NewString()
	ctx, cancel := context.WithCancel(parent)
	ctx = log.ContextWithRunID(log.ContextWithWorker(ctx, string(kind)), runID)

	t := &task{kind: kind, runID: runID, cancel: cancel, done: make(chan struct{})}
	logger := log.WithComponentFromContext(ctx, "worker."+string(kind))

	metrics.WorkerStarted(string(kind))
	logger.Debug().Str(log.FieldEvent, "worker.started").Msg("worker started")

	go func() {
		defer close(t.done)
		defer metrics.WorkerStopped(string(kind))
		defer cancel()

		err := run(ctx, logger)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		if err != nil {
			logger.Error().Err(err).Str(log.FieldEvent, "worker.failed").Msg("worker failed")
		} else {
			logger.Debug().Str(log.FieldEvent, "worker.stopped").Msg("worker stopped")
		}
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
	}()
	return t
}

func (t *task) Kind() Kind { return t.kind }

// RunID identifies one run of a worker in logs.
func (t *task) RunID() string { return t.runID }

func (t *task) Stop() { t.cancel() }

func (t *task) Done() <-chan struct{} { return t.done }

func (t *task) Wait() error {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// sleep suspends for d. It returns false when ctx ended first, which callers
// treat as "stop now" rather than as a failure.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// withLease acquires the port for kind and releases it when fn returns.
func withLease(arb *dmx.Arbiter, kind Kind, fn func(l *dmx.Lease) error) error {
	return arb.Do(string(kind), fn)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package dmxtest provides a recording dmx.Port for tests.
package dmxtest

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/chuck/internal/dmx"
)

// Recorder is a dmx.Port that keeps every frame it receives and counts
// overlapping writes. Hold stretches each write so overlaps become observable.
type Recorder struct {
	Hold time.Duration

	inFlight atomic.Int32
	overlaps atomic.Int32

	mu     sync.Mutex
	frames []dmx.Frame
	last   dmx.Frame
	err    error
	closed bool
	notify chan struct{}
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

// SetErr makes every following write fail with err (nil to heal).
func (r *Recorder) SetErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *Recorder) enter() func() {
	if r.inFlight.Add(1) > 1 {
		r.overlaps.Add(1)
	}
	if r.Hold > 0 {
		time.Sleep(r.Hold)
	}
	return func() { r.inFlight.Add(-1) }
}

func (r *Recorder) WriteFrame(f dmx.Frame) error {
	defer r.enter()()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.last = f
	r.frames = append(r.frames, f)
	r.signal()
	return nil
}

func (r *Recorder) WriteChannel(ch int, v byte) error {
	defer r.enter()()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if err := r.last.Set(ch, v); err != nil {
		return err
	}
	r.frames = append(r.frames, r.last)
	r.signal()
	return nil
}

func (r *Recorder) signal() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Frames returns a copy of every frame written so far.
func (r *Recorder) Frames() []dmx.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dmx.Frame(nil), r.frames...)
}

// Writes returns the number of successful writes.
func (r *Recorder) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Last returns the most recent frame.
func (r *Recorder) Last() dmx.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Overlaps returns how many writes started while another was in flight.
func (r *Recorder) Overlaps() int {
	return int(r.overlaps.Load())
}

// WaitForWrites blocks until at least n writes happened or timeout elapses.
func (r *Recorder) WaitForWrites(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if r.Writes() >= n {
			return true
		}
		select {
		case <-r.notify:
		case <-deadline.C:
			return r.Writes() >= n
		}
	}
}

var _ dmx.Port = (*Recorder)(nil)

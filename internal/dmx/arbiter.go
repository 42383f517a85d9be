// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package dmx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ManuGH/chuck/internal/log"
	"github.com/ManuGH/chuck/internal/metrics"
	"github.com/rs/zerolog"
)

var (
	// ErrBusy is returned by Acquire while another lease is live.
	ErrBusy = errors.New("dmx port is held by another writer")

	// ErrLeaseReleased is returned by writes through a released lease.
	ErrLeaseReleased = errors.New("dmx lease released")

	// ErrClosed is returned once the arbiter has been closed.
	ErrClosed = errors.New("dmx arbiter closed")
)

// Arbiter owns the output Port and hands out at most one write lease at a time.
// Every write goes through the live lease, so the port never has two writers.
// The arbiter also keeps a shadow of the last frame it pushed.
type Arbiter struct {
	port   Port
	logger zerolog.Logger

	mu     sync.Mutex
	holder *Lease
	shadow Frame
	closed bool
	// lastErr is the most recent write failure, cleared by the next success.
	lastErr error
}

// NewArbiter takes ownership of port.
func NewArbiter(port Port) *Arbiter {
	return &Arbiter{
		port:   port,
		logger: log.WithComponent("dmx"),
	}
}

// Acquire returns the write lease for name, or ErrBusy if one is live.
func (a *Arbiter) Acquire(name string) (*Lease, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrClosed
	}
	if a.holder != nil {
		return nil, fmt.Errorf("%w: held by %s, wanted by %s", ErrBusy, a.holder.name, name)
	}
	l := &Lease{a: a, name: name}
	a.holder = l
	metrics.SetDMXHolder(name)
	a.logger.Debug().Str("holder", name).Msg("dmx lease acquired")
	return l, nil
}

// Holder returns the name of the live lease holder, or "" when free.
func (a *Arbiter) Holder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.holder == nil {
		return ""
	}
	return a.holder.name
}

// Snapshot returns a copy of the last frame pushed to the port.
func (a *Arbiter) Snapshot() Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shadow
}

// LastError returns the most recent port failure, or nil once a later write
// succeeded.
func (a *Arbiter) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Do runs fn with a lease that is released when fn returns.
func (a *Arbiter) Do(name string, fn func(l *Lease) error) error {
	l, err := a.Acquire(name)
	if err != nil {
		return err
	}
	defer l.Release()
	return fn(l)
}

// Blackout writes an all-zero frame. It fails with ErrBusy while a lease is live.
func (a *Arbiter) Blackout() error {
	return a.Do("blackout", func(l *Lease) error {
		return l.WriteFrame(Frame{})
	})
}

// Close closes the port. Outstanding leases become unusable.
func (a *Arbiter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.holder = nil
	metrics.SetDMXHolder("")
	return a.port.Close()
}

func (a *Arbiter) write(l *Lease, op string, fn func() error, apply func(*Frame)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.holder != l {
		return fmt.Errorf("%w: %s", ErrLeaseReleased, l.name)
	}
	if err := fn(); err != nil {
		metrics.IncDMXWriteError(l.name)
		var ioErr *IOError
		if !errors.As(err, &ioErr) {
			err = &IOError{Op: op, Device: l.name, Err: err}
		}
		a.lastErr = err
		return err
	}
	a.lastErr = nil
	apply(&a.shadow)
	metrics.IncDMXWrite(l.name, op)
	return nil
}

// Lease is the exclusive right to write to the port.
type Lease struct {
	a    *Arbiter
	name string
}

// Name returns the holder name given to Acquire.
func (l *Lease) Name() string {
	return l.name
}

// WriteFrame pushes a full frame.
func (l *Lease) WriteFrame(f Frame) error {
	f[0] = StartCode
	return l.a.write(l, "frame", func() error {
		return l.a.port.WriteFrame(f)
	}, func(shadow *Frame) {
		*shadow = f
	})
}

// WriteChannel pushes a single 1-based channel value.
func (l *Lease) WriteChannel(ch int, v byte) error {
	if ch < 1 || ch > Channels {
		return fmt.Errorf("dmx channel %d out of range 1..%d", ch, Channels)
	}
	return l.a.write(l, "channel", func() error {
		return l.a.port.WriteChannel(ch, v)
	}, func(shadow *Frame) {
		shadow[ch] = v
	})
}

// Release gives the port back. Releasing twice is a no-op.
func (l *Lease) Release() {
	a := l.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.holder != l {
		return
	}
	a.holder = nil
	metrics.SetDMXHolder("")
	a.logger.Debug().Str("holder", l.name).Msg("dmx lease released")
}

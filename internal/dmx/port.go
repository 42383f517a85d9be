// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package dmx

import (
	"fmt"
	"sync"
)

// Port pushes frames to lighting hardware. Implementations are not required
// to be safe for concurrent use; the Arbiter serialises every call.
type Port interface {
	WriteFrame(f Frame) error
	WriteChannel(ch int, v byte) error
	Close() error
}

// IOError is a hardware write failure.
type IOError struct {
	Op     string
	Device string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("dmx %s %s: %v", e.Op, e.Device, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NullPort discards output but keeps the last frame, for running without hardware.
type NullPort struct {
	mu   sync.Mutex
	last Frame
}

func (p *NullPort) WriteFrame(f Frame) error {
	p.mu.Lock()
	p.last = f
	p.mu.Unlock()
	return nil
}

func (p *NullPort) WriteChannel(ch int, v byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last.Set(ch, v)
}

func (p *NullPort) Close() error { return nil }

// Last returns the most recent frame.
func (p *NullPort) Last() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

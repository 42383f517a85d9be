// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package profile describes lighting fixtures and where their functions live
// on the DMX universe.
package profile

import (
	"fmt"
	"sync"

	"github.com/ManuGH/chuck/internal/dmx"
)

// Function is a named fixture capability.
type Function int

const (
	Dimmer Function = iota
	Red
	Green
	Blue
	Amber
	White
	Strobe
	Zoom
	Pan
	PanFine
	Tilt
	TiltFine

	numFunctions
)

var functionNames = [numFunctions]string{
	"dimmer", "red", "green", "blue", "amber", "white",
	"strobe", "zoom", "pan", "pan_fine", "tilt", "tilt_fine",
}

// Functions lists every function in set-file column order.
func Functions() []Function {
	out := make([]Function, numFunctions)
	for i := range out {
		out[i] = Function(i)
	}
	return out
}

func (f Function) String() string {
	if f < 0 || f >= numFunctions {
		return fmt.Sprintf("function(%d)", int(f))
	}
	return functionNames[f]
}

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

// Profile is one patched fixture. Name, address and offsets are fixed once the
// profile is built; the live function values are mutated by the controller and
// read by workers, so they sit behind a lock.
type Profile struct {
	Name     string
	Address  int // first channel, 1-based
	Channels int // channel footprint

	offsets [numFunctions]int // 1-based offset inside the footprint, 0 = absent

	mu     sync.RWMutex
	values [numFunctions]byte
}

// New validates the footprint and returns a profile with no functions mapped.
func New(name string, address, channels int) (*Profile, error) {
	if address < 1 || address > dmx.Channels {
		return nil, fmt.Errorf("profile %q: address %d out of range 1..%d", name, address, dmx.Channels)
	}
	if channels < 1 || address+channels-1 > dmx.Channels {
		return nil, fmt.Errorf("profile %q: %d channels at address %d exceed the universe", name, channels, address)
	}
	return &Profile{Name: name, Address: address, Channels: channels}, nil
}

// SetOffset maps fn to a 1-based offset in the footprint; 0 unmaps it.
func (p *Profile) SetOffset(fn Function, offset int) error {
	if fn < 0 || fn >= numFunctions {
		return fmt.Errorf("profile %q: unknown function %d", p.Name, fn)
	}
	if offset < 0 || offset > p.Channels {
		return fmt.Errorf("profile %q: %s offset %d outside 0..%d", p.Name, fn, offset, p.Channels)
	}
	p.offsets[fn] = offset
	return nil
}

// Offset returns the offset of fn, 0 when absent.
func (p *Profile) Offset(fn Function) int {
	if fn < 0 || fn >= numFunctions {
		return 0
	}
	return p.offsets[fn]
}

// Channel returns the absolute 1-based DMX channel of fn.
func (p *Profile) Channel(fn Function) (int, bool) {
	off := p.Offset(fn)
	if off == 0 {
		return 0, false
	}
	return p.Address + off - 1, true
}

// SetValue sets the live value of fn. Unmapped functions still keep the value.
func (p *Profile) SetValue(fn Function, v byte) {
	if fn < 0 || fn >= numFunctions {
		return
	}
	p.mu.Lock()
	p.values[fn] = v
	p.mu.Unlock()
}

// Value returns the live value of fn.
func (p *Profile) Value(fn Function) byte {
	if fn < 0 || fn >= numFunctions {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[fn]
}

// SetDimmer sets the dimmer value.
func (p *Profile) SetDimmer(v byte) {
	p.SetValue(Dimmer, v)
}

// SetColor sets red, green and blue and clears amber and white.
func (p *Profile) SetColor(c Color) {
	p.mu.Lock()
	p.values[Red] = c.R
	p.values[Green] = c.G
	p.values[Blue] = c.B
	p.values[Amber] = 0
	p.values[White] = 0
	p.mu.Unlock()
}

// Color returns the current RGB value.
func (p *Profile) Color() Color {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Color{R: p.values[Red], G: p.values[Green], B: p.values[Blue]}
}

// Render writes every mapped function value into f.
func (p *Profile) Render(f *dmx.Frame) {
	p.mu.RLock()
	vals := p.values
	p.mu.RUnlock()
	p.render(f, vals)
}

// RenderDimmed renders like Render but forces the dimmer to level.
func (p *Profile) RenderDimmed(f *dmx.Frame, level byte) {
	p.mu.RLock()
	vals := p.values
	p.mu.RUnlock()
	vals[Dimmer] = level
	p.render(f, vals)
}

func (p *Profile) render(f *dmx.Frame, vals [numFunctions]byte) {
	for fn, off := range p.offsets {
		if off == 0 {
			continue
		}
		_ = f.Set(p.Address+off-1, vals[fn])
	}
}

func (p *Profile) String() string {
	return fmt.Sprintf("%s@%d/%d", p.Name, p.Address, p.Channels)
}

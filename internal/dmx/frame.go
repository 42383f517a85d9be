// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package dmx models DMX512 frames and the single shared output port.
package dmx

import "fmt"

const (
	// Channels is the number of addressable channels in one universe.
	Channels = 512

	// UniverseSize is the frame length: one start-code slot plus Channels.
	UniverseSize = Channels + 1

	// StartCode is the null start code that precedes dimmer data.
	StartCode byte = 0x00
)

// Frame is a full universe. Slot 0 carries the start code and channel n
// (1-based) lives at slot n.
type Frame [UniverseSize]byte

// Set assigns value v to 1-based channel ch.
func (f *Frame) Set(ch int, v byte) error {
	if ch < 1 || ch > Channels {
		return fmt.Errorf("dmx channel %d out of range 1..%d", ch, Channels)
	}
	f[ch] = v
	return nil
}

// Get returns the value of 1-based channel ch, or 0 when out of range.
func (f *Frame) Get(ch int) byte {
	if ch < 1 || ch > Channels {
		return 0
	}
	return f[ch]
}

// Data returns the channel values without the start-code slot.
func (f *Frame) Data() []byte {
	return f[1:]
}

// Clear zeroes every channel.
func (f *Frame) Clear() {
	*f = Frame{}
}

// FrameFromSlice builds a frame from a slot slice of at most UniverseSize values.
func FrameFromSlice(slots []int) (Frame, error) {
	var f Frame
	if len(slots) > UniverseSize {
		return f, fmt.Errorf("frame has %d slots, max %d", len(slots), UniverseSize)
	}
	for i, v := range slots {
		if v < 0 || v > 255 {
			return f, fmt.Errorf("slot %d value %d out of range 0..255", i, v)
		}
		f[i] = byte(v)
	}
	return f, nil
}

// Slots returns the frame as a slot slice, the inverse of FrameFromSlice.
func (f *Frame) Slots() []int {
	out := make([]int, UniverseSize)
	for i, v := range f {
		out[i] = int(v)
	}
	return out
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package mode defines the operating modes of the lighting controller.
package mode

import (
	"fmt"
	"strings"
)

// Mode is one operating mode of the controller. The numeric value is the code
// carried in heartbeat datagrams.
type Mode uint8

const (
	Idle Mode = iota
	LightSelection
	ControlSelection
	ColorWheel
	Dmx
	Preset
	Chase
	Party
	Scary
)

var names = [...]string{
	Idle:             "idle",
	LightSelection:   "light_selection",
	ControlSelection: "control_selection",
	ColorWheel:       "color_wheel",
	Dmx:              "dmx",
	Preset:           "preset",
	Chase:            "chase",
	Party:            "party",
	Scary:            "scary",
}

// All lists every mode in code order.
func All() []Mode {
	out := make([]Mode, len(names))
	for i := range names {
		out[i] = Mode(i)
	}
	return out
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return int(m) < len(names)
}

// Code returns the wire code of the mode.
func (m Mode) Code() byte {
	return byte(m)
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
	return names[m]
}

// FromCode converts a wire code back into a Mode.
func FromCode(b byte) (Mode, error) {
	m := Mode(b)
	if !m.Valid() {
		return 0, fmt.Errorf("unknown mode code %d", b)
	}
	return m, nil
}

// Parse accepts the snake_case name of a mode.
func Parse(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

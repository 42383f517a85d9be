// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package command decodes controller datagrams into typed commands.
package command

import (
	"fmt"
	"net/netip"
)

// PacketKind is the first byte of every controller datagram.
type PacketKind byte

const (
	PacketData      PacketKind = 0x01
	PacketPoll      PacketKind = 0x02
	PacketPollReply PacketKind = 0x03

	// PacketHeartbeat is only ever sent by the server.
	PacketHeartbeat PacketKind = 0x04
)

func (k PacketKind) String() string {
	switch k {
	case PacketData:
		return "data"
	case PacketPoll:
		return "poll"
	case PacketPollReply:
		return "poll_reply"
	case PacketHeartbeat:
		return "heartbeat"
	default:
		return fmt.Sprintf("packet(0x%02x)", byte(k))
	}
}

// DataKind discriminates the payload of a data packet.
type DataKind byte

const (
	DataNone       DataKind = 0x00
	DataUserAction DataKind = 0x01
	DataJoystick   DataKind = 0x02
)

func (k DataKind) String() string {
	switch k {
	case DataNone:
		return "none"
	case DataUserAction:
		return "user_action"
	case DataJoystick:
		return "joystick"
	default:
		return fmt.Sprintf("data(0x%02x)", byte(k))
	}
}

// Action is a discrete user input on the handheld controller.
type Action byte

const (
	ActionNone Action = iota
	Up
	Down
	Left
	Right
	Button1
	Button2
	ComboButtons
	SelectShort
	SelectLong
	ComboSequenceForward
	ComboSequenceReverse
)

var actionNames = [...]string{
	ActionNone:           "none",
	Up:                   "up",
	Down:                 "down",
	Left:                 "left",
	Right:                "right",
	Button1:              "b1",
	Button2:              "b2",
	ComboButtons:         "combo",
	SelectShort:          "select",
	SelectLong:           "select_long",
	ComboSequenceForward: "seq",
	ComboSequenceReverse: "rev_seq",
}

// Valid reports whether a is a known, non-empty action.
func (a Action) Valid() bool {
	return a > ActionNone && int(a) < len(actionNames)
}

func (a Action) String() string {
	if int(a) >= len(actionNames) {
		return fmt.Sprintf("action(0x%02x)", byte(a))
	}
	return actionNames[a]
}

// ParseAction maps a short action name ("b1", "select_long", ...) to an Action.
func ParseAction(s string) (Action, error) {
	for i, n := range actionNames {
		if Action(i) != ActionNone && n == s {
			return Action(i), nil
		}
	}
	return ActionNone, fmt.Errorf("unknown action %q", s)
}

// Joystick carries the two signed axis values of a joystick packet.
type Joystick struct {
	X int8
	Y int8
}

// Command is an immutable decoded controller datagram.
type Command struct {
	Packet   PacketKind
	Data     DataKind
	Action   Action
	Joystick Joystick
	Sender   netip.AddrPort
}

// IsUserAction reports whether the command is a data packet carrying a user action.
func (c Command) IsUserAction() bool {
	return c.Packet == PacketData && c.Data == DataUserAction
}

// Validate checks the structural consistency of a command. Commands produced
// by Decode always validate; hand-built ones may not.
func (c Command) Validate() error {
	switch c.Packet {
	case PacketPoll, PacketPollReply:
		return nil
	case PacketData:
	default:
		return fmt.Errorf("%w: unknown packet kind %s", ErrDecode, c.Packet)
	}
	switch c.Data {
	case DataUserAction:
		if !c.Action.Valid() {
			return fmt.Errorf("%w: unknown action %s", ErrDecode, c.Action)
		}
	case DataJoystick:
		if c.Action != ActionNone {
			return fmt.Errorf("%w: joystick packet carries action %s", ErrDecode, c.Action)
		}
	default:
		return fmt.Errorf("%w: unknown data kind %s", ErrDecode, c.Data)
	}
	return nil
}

func (c Command) String() string {
	switch {
	case c.IsUserAction():
		return fmt.Sprintf("%s/%s/%s", c.Packet, c.Data, c.Action)
	case c.Packet == PacketData && c.Data == DataJoystick:
		return fmt.Sprintf("%s/%s/(%d,%d)", c.Packet, c.Data, c.Joystick.X, c.Joystick.Y)
	default:
		return c.Packet.String()
	}
}

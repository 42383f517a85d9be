// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package command

import (
	"errors"
	"fmt"
	"net/netip"
)

// ErrDecode classifies malformed controller datagrams.
var ErrDecode = errors.New("malformed command")

// DecodeError describes where decoding a datagram failed.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed command at byte %d: %s", e.Offset, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrDecode).
func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

func decodeErr(offset int, format string, args ...any) error {
	return &DecodeError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// Decode parses a raw datagram received from sender. It is pure and does no I/O.
//
// Layout:
//
//	[packet] [data] [action]          user action
//	[packet] [data] [x] [y]           joystick (signed axes)
//	[packet]                          poll / poll reply
func Decode(b []byte, sender netip.AddrPort) (Command, error) {
	if len(b) == 0 {
		return Command{}, decodeErr(0, "empty datagram")
	}
	cmd := Command{Packet: PacketKind(b[0]), Sender: sender}

	switch cmd.Packet {
	case PacketPoll, PacketPollReply:
		return cmd, nil
	case PacketData:
	default:
		return Command{}, decodeErr(0, "unknown packet kind 0x%02x", b[0])
	}

	if len(b) < 2 {
		return Command{}, decodeErr(1, "data packet without data kind")
	}
	cmd.Data = DataKind(b[1])

	switch cmd.Data {
	case DataUserAction:
		if len(b) < 3 {
			return Command{}, decodeErr(2, "user action packet without action code")
		}
		cmd.Action = Action(b[2])
		if !cmd.Action.Valid() {
			return Command{}, decodeErr(2, "unknown action code 0x%02x", b[2])
		}
	case DataJoystick:
		if len(b) < 4 {
			return Command{}, decodeErr(len(b), "joystick packet truncated")
		}
		cmd.Joystick = Joystick{X: int8(b[2]), Y: int8(b[3])}
	default:
		return Command{}, decodeErr(1, "unknown data kind 0x%02x", b[1])
	}

	return cmd, nil
}

// Encode renders a command into its datagram form. The sender is not encoded.
func Encode(c Command) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Packet {
	case PacketPoll, PacketPollReply:
		return []byte{byte(c.Packet)}, nil
	}
	if c.Data == DataJoystick {
		return []byte{byte(c.Packet), byte(c.Data), byte(c.Joystick.X), byte(c.Joystick.Y)}, nil
	}
	return []byte{byte(c.Packet), byte(c.Data), byte(c.Action)}, nil
}

// UserAction builds a user-action data command.
func UserAction(a Action) Command {
	return Command{Packet: PacketData, Data: DataUserAction, Action: a}
}

// JoystickMove builds a joystick data command.
func JoystickMove(x, y int8) Command {
	return Command{Packet: PacketData, Data: DataJoystick, Joystick: Joystick{X: x, Y: y}}
}

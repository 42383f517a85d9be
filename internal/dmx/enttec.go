// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package dmx

import (
	"fmt"
	"io"

	"github.com/ManuGH/chuck/internal/log"
	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

// Enttec DMX USB Pro framing.
const (
	enttecSOM          = 0x7E
	enttecEOM          = 0xE7
	enttecLabelSendDMX = 0x06
	enttecBaud         = 57600
)

// EnttecPort drives an Enttec DMX USB Pro (or compatible) widget over a
// serial line.
type EnttecPort struct {
	dev    io.WriteCloser
	device string
	frame  Frame
	logger zerolog.Logger
}

// OpenEnttec opens the named serial device.
func OpenEnttec(device string) (*EnttecPort, error) {
	mode := &serial.Mode{
		BaudRate: enttecBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(device, mode)
	if err != nil {
		return nil, &IOError{Op: "open", Device: device, Err: err}
	}
	port := NewEnttec(p, device)
	port.logger.Info().
		Int("baud", enttecBaud).
		Msg("serial port opened")
	return port, nil
}

// NewEnttec wraps an already open writer, e.g. a serial port or a test buffer.
func NewEnttec(dev io.WriteCloser, device string) *EnttecPort {
	return &EnttecPort{
		dev:    dev,
		device: device,
		logger: log.WithComponent("dmx").With().Str(log.FieldDevice, device).Logger(),
	}
}

// EncodeEnttec builds the on-wire "Output Only Send DMX" message:
//
//	[SOM][label][lenLSB][lenMSB][startcode][ch1..ch512][EOM]
func EncodeEnttec(f Frame) []byte {
	n := len(f)
	out := make([]byte, 0, n+5)
	out = append(out, enttecSOM, enttecLabelSendDMX, byte(n&0xFF), byte(n>>8))
	out = append(out, f[:]...)
	out = append(out, enttecEOM)
	return out
}

func (p *EnttecPort) WriteFrame(f Frame) error {
	p.frame = f
	return p.flush()
}

func (p *EnttecPort) WriteChannel(ch int, v byte) error {
	if err := p.frame.Set(ch, v); err != nil {
		return err
	}
	return p.flush()
}

func (p *EnttecPort) flush() error {
	data := EncodeEnttec(p.frame)
	n, err := p.dev.Write(data)
	if err != nil {
		return &IOError{Op: "write", Device: p.device, Err: err}
	}
	if n != len(data) {
		return &IOError{Op: "write", Device: p.device, Err: fmt.Errorf("short write %d/%d", n, len(data))}
	}
	p.logger.Trace().Int("bytes", n).Msg("frame sent")
	return nil
}

func (p *EnttecPort) Close() error {
	p.logger.Info().Msg("closing serial port")
	return p.dev.Close()
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package dmx

import (
	"context"
	"fmt"
	"net"

	"github.com/ManuGH/chuck/internal/log"
	"github.com/rs/zerolog"
)

const (
	// ArtNetUDPPort is the standard Art-Net UDP port.
	ArtNetUDPPort = 6454

	artnetOpDMX      = 0x5000
	artnetProtoVer   = 14
	artnetHeaderSize = 18
)

// ArtNetPort sends frames as ArtDMX packets to a unicast or broadcast target.
type ArtNetPort struct {
	conn     net.PacketConn
	target   *net.UDPAddr
	universe uint16
	seq      uint8
	frame    Frame
	logger   zerolog.Logger
}

// OpenArtNet opens a UDP socket with broadcast enabled and targets addr
// (host:port, port defaults to 6454).
func OpenArtNet(addr string, universe uint16) (*ArtNetPort, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host, port = addr, fmt.Sprint(ArtNetUDPPort)
	}
	target, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, port))
	if err != nil {
		return nil, &IOError{Op: "resolve", Device: addr, Err: err}
	}
	lc := net.ListenConfig{Control: enableBroadcast}
	conn, err := lc.ListenPacket(context.Background(), "udp4", ":0")
	if err != nil {
		return nil, &IOError{Op: "open", Device: addr, Err: err}
	}
	ap := NewArtNet(conn, target, universe)
	ap.logger.Info().
		Str("target", target.String()).
		Uint16("universe", universe).
		Msg("art-net output opened")
	return ap, nil
}

// NewArtNet wraps an existing packet connection.
func NewArtNet(conn net.PacketConn, target *net.UDPAddr, universe uint16) *ArtNetPort {
	return &ArtNetPort{
		conn:     conn,
		target:   target,
		universe: universe,
		seq:      1,
		logger:   log.WithComponent("dmx").With().Str(log.FieldDevice, "artnet").Logger(),
	}
}

// EncodeArtDMX constructs an ArtDMX packet for the universe. Sequence 0
// disables reordering on the node, so callers cycle 1..255.
func EncodeArtDMX(seq uint8, universe uint16, f Frame) []byte {
	data := f.Data()
	packet := make([]byte, artnetHeaderSize+len(data))
	copy(packet[0:], "Art-Net\x00")
	packet[8], packet[9] = byte(artnetOpDMX&0xFF), byte(artnetOpDMX>>8) // OpCode, little-endian
	packet[10], packet[11] = 0x00, artnetProtoVer
	packet[12], packet[13] = seq, 0x00
	packet[14], packet[15] = byte(universe&0xFF), byte((universe>>8)&0x7F) // SubUni, Net
	packet[16], packet[17] = byte(len(data)>>8), byte(len(data)&0xFF)
	copy(packet[artnetHeaderSize:], data)
	return packet
}

func (p *ArtNetPort) WriteFrame(f Frame) error {
	p.frame = f
	return p.send()
}

func (p *ArtNetPort) WriteChannel(ch int, v byte) error {
	if err := p.frame.Set(ch, v); err != nil {
		return err
	}
	return p.send()
}

func (p *ArtNetPort) send() error {
	packet := EncodeArtDMX(p.seq, p.universe, p.frame)
	p.seq++
	if p.seq == 0 {
		p.seq = 1
	}
	if _, err := p.conn.WriteTo(packet, p.target); err != nil {
		return &IOError{Op: "write", Device: p.target.String(), Err: err}
	}
	p.logger.Trace().Uint8("seq", packet[12]).Msg("artdmx sent")
	return nil
}

func (p *ArtNetPort) Close() error {
	return p.conn.Close()
}

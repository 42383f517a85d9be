// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package dmx

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type nopCloser struct{ buf []byte }

func (n *nopCloser) Write(p []byte) (int, error) {
	n.buf = append(n.buf, p...)
	return len(p), nil
}

func (n *nopCloser) Close() error { return nil }

func TestEncodeEnttec(t *testing.T) {
	var f Frame
	require.NoError(t, f.Set(1, 0xAA))
	require.NoError(t, f.Set(512, 0x01))

	out := EncodeEnttec(f)
	require.Len(t, out, UniverseSize+5)
	require.Equal(t, []byte{0x7E, 0x06, 0x01, 0x02, 0x00, 0xAA}, out[:6])
	require.Equal(t, byte(0x01), out[len(out)-2])
	require.Equal(t, byte(0xE7), out[len(out)-1])
}

func TestEnttecWriteChannelKeepsFrame(t *testing.T) {
	w := &nopCloser{}
	p := NewEnttec(w, "test")

	require.NoError(t, p.WriteChannel(3, 9))
	require.NoError(t, p.WriteChannel(4, 8))

	msg := w.buf[len(w.buf)-(UniverseSize+5):]
	require.Equal(t, byte(9), msg[4+3])
	require.Equal(t, byte(8), msg[4+4])
}

func TestEncodeArtDMX(t *testing.T) {
	var f Frame
	require.NoError(t, f.Set(1, 255))

	pkt := EncodeArtDMX(7, 0x0102, f)
	require.Len(t, pkt, 18+Channels)
	require.Equal(t, "Art-Net\x00", string(pkt[:8]))
	require.Equal(t, []byte{0x00, 0x50}, pkt[8:10])
	require.Equal(t, byte(14), pkt[11])
	require.Equal(t, byte(7), pkt[12])
	require.Equal(t, []byte{0x02, 0x01}, pkt[14:16])
	require.Equal(t, []byte{0x02, 0x00}, pkt[16:18])
	require.Equal(t, byte(255), pkt[18])
}

func TestArtNetPortSendsToTarget(t *testing.T) {
	rx, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer rx.Close()

	tx, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	p := NewArtNet(tx, rx.LocalAddr().(*net.UDPAddr), 0)
	defer p.Close()

	require.NoError(t, p.WriteChannel(5, 77))

	require.NoError(t, rx.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1024)
	n, _, err := rx.ReadFromUDP(buf)
	require.NoError(t, err)
	require.Equal(t, 18+Channels, n)
	require.Equal(t, byte(1), buf[12])
	require.Equal(t, byte(77), buf[18+4])
}

func TestOpenArtNet(t *testing.T) {
	rx, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer rx.Close()

	p, err := OpenArtNet(rx.LocalAddr().String(), 3)
	require.NoError(t, err)
	defer p.Close()

	var f Frame
	require.NoError(t, f.Set(1, 42))
	require.NoError(t, p.WriteFrame(f))

	require.NoError(t, rx.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1024)
	n, _, err := rx.ReadFromUDP(buf)
	require.NoError(t, err)
	require.Equal(t, 18+Channels, n)
	require.Equal(t, []byte{0x03, 0x00}, buf[14:16])
	require.Equal(t, byte(42), buf[18])
}

func TestOpenEnttecMissingDevice(t *testing.T) {
	_, err := OpenEnttec(filepath.Join(t.TempDir(), "ttyUSB9"))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "open", ioErr.Op)
}

func TestFrameSlotsRoundTrip(t *testing.T) {
	var f Frame
	require.NoError(t, f.Set(10, 100))
	g, err := FrameFromSlice(f.Slots())
	require.NoError(t, err)
	require.Equal(t, f, g)

	_, err = FrameFromSlice([]int{0, 256})
	require.Error(t, err)
	_, err = FrameFromSlice(make([]int, UniverseSize+1))
	require.Error(t, err)
	require.Error(t, f.Set(0, 1))
}

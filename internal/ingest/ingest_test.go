// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ingest

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/chuck/internal/command"
	"github.com/ManuGH/chuck/internal/metrics"
	"github.com/ManuGH/chuck/internal/queue"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

type harness struct {
	server *net.UDPConn
	client *net.UDPConn
	q      *queue.Queue
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T) *harness {
	t.Helper()
	server, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	client, err := net.DialUDP("udp", nil, server.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)

	h := &harness{server: server, client: client, q: queue.New(8), done: make(chan error, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- New(server, h.q).Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-h.done:
		case <-time.After(2 * time.Second):
			t.Error("receiver did not stop")
		}
		_ = client.Close()
		_ = server.Close()
	})
	return h
}

func (h *harness) send(t *testing.T, b []byte) {
	t.Helper()
	_, err := h.client.Write(b)
	require.NoError(t, err)
}

func (h *harness) pop(t *testing.T) (command.Command, bool) {
	t.Helper()
	c, ok, err := h.q.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	return c, ok
}

func TestReceivesCommandsInOrder(t *testing.T) {
	h := start(t)

	for _, a := range []command.Action{command.Button1, command.Right, command.SelectShort} {
		b, err := command.Encode(command.UserAction(a))
		require.NoError(t, err)
		h.send(t, b)
	}

	for _, want := range []command.Action{command.Button1, command.Right, command.SelectShort} {
		c, ok := h.pop(t)
		require.True(t, ok)
		assert.Equal(t, want, c.Action)
		assert.Equal(t, h.client.LocalAddr().(*net.UDPAddr).AddrPort(), c.Sender)
	}
}

func TestDropsMalformedDatagrams(t *testing.T) {
	h := start(t)
	before := counterValue(t, metrics.DecodeFailuresTotal)

	h.send(t, []byte{0x01})
	h.send(t, []byte{0x01, 0x01, 0x7F})
	b, err := command.Encode(command.UserAction(command.Up))
	require.NoError(t, err)
	h.send(t, b)

	c, ok := h.pop(t)
	require.True(t, ok)
	assert.Equal(t, command.Up, c.Action)
	assert.Equal(t, before+2, counterValue(t, metrics.DecodeFailuresTotal))
	assert.Zero(t, h.q.Len())
}

func TestStopInterruptsReceive(t *testing.T) {
	h := start(t)
	time.Sleep(20 * time.Millisecond)

	h.cancel()
	select {
	case err := <-h.done:
		require.NoError(t, err)
		h.done <- nil
	case <-time.After(2 * time.Second):
		t.Fatal("receive was not interrupted")
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package dmx_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/chuck/internal/dmx"
	"github.com/ManuGH/chuck/internal/dmx/dmxtest"
	"github.com/stretchr/testify/require"
)

func TestAcquireIsExclusive(t *testing.T) {
	a := dmx.NewArbiter(dmxtest.NewRecorder())

	l, err := a.Acquire("chase")
	require.NoError(t, err)
	require.Equal(t, "chase", a.Holder())

	_, err = a.Acquire("highlight")
	require.ErrorIs(t, err, dmx.ErrBusy)

	l.Release()
	require.Empty(t, a.Holder())

	l2, err := a.Acquire("highlight")
	require.NoError(t, err)
	l2.Release()
}

func TestReleasedLeaseCannotWrite(t *testing.T) {
	rec := dmxtest.NewRecorder()
	a := dmx.NewArbiter(rec)

	l, err := a.Acquire("chase")
	require.NoError(t, err)
	l.Release()
	l.Release()

	err = l.WriteFrame(dmx.Frame{})
	require.ErrorIs(t, err, dmx.ErrLeaseReleased)
	require.Zero(t, rec.Writes())
}

func TestWritesUpdateSnapshot(t *testing.T) {
	rec := dmxtest.NewRecorder()
	a := dmx.NewArbiter(rec)

	var f dmx.Frame
	require.NoError(t, f.Set(1, 10))
	require.NoError(t, f.Set(512, 20))
	f[0] = 0x55 // start code is forced to null

	require.NoError(t, a.Do("test", func(l *dmx.Lease) error {
		if err := l.WriteFrame(f); err != nil {
			return err
		}
		return l.WriteChannel(2, 30)
	}))

	snap := a.Snapshot()
	require.Equal(t, byte(0), snap[0])
	require.Equal(t, byte(10), snap.Get(1))
	require.Equal(t, byte(30), snap.Get(2))
	require.Equal(t, byte(20), snap.Get(512))
	require.Equal(t, 2, rec.Writes())
	require.Equal(t, snap, rec.Last())
}

func TestWriteFailureIsIOError(t *testing.T) {
	rec := dmxtest.NewRecorder()
	rec.SetErr(errors.New("cable unplugged"))
	a := dmx.NewArbiter(rec)

	err := a.Blackout()
	var ioErr *dmx.IOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "blackout", ioErr.Device)
	require.Empty(t, a.Holder(), "Do must release the lease on failure")
	require.ErrorAs(t, a.LastError(), &ioErr)

	rec.SetErr(nil)
	require.NoError(t, a.Blackout())
	require.NoError(t, a.LastError(), "a good write clears the last error")
}

func TestChannelOutOfRange(t *testing.T) {
	a := dmx.NewArbiter(dmxtest.NewRecorder())
	err := a.Do("test", func(l *dmx.Lease) error { return l.WriteChannel(513, 1) })
	require.Error(t, err)
}

func TestClosedArbiter(t *testing.T) {
	rec := dmxtest.NewRecorder()
	a := dmx.NewArbiter(rec)
	require.NoError(t, a.Close())
	require.True(t, rec.Closed())

	_, err := a.Acquire("late")
	require.ErrorIs(t, err, dmx.ErrClosed)
}

func TestConcurrentAcquireSingleWriter(t *testing.T) {
	rec := dmxtest.NewRecorder()
	rec.Hold = time.Millisecond
	a := dmx.NewArbiter(rec)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = a.Do("w", func(l *dmx.Lease) error { return l.WriteFrame(dmx.Frame{}) })
			}
		}()
	}
	wg.Wait()

	require.Zero(t, rec.Overlaps())
	require.Positive(t, rec.Writes())
}

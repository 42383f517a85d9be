// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/chuck/internal/dmx"
	"github.com/ManuGH/chuck/internal/log"
	"github.com/ManuGH/chuck/internal/metrics"
)

// MinChaseScenes is the smallest scene list a chase plays.
const MinChaseScenes = 2

// Chase cycles a fixed scene list on a timer until stopped.
type Chase struct {
	*task
	delay atomic.Int64
}

// StartChase plays scenes in order, wrapping, sleeping delay between frames.
// With fewer than MinChaseScenes it exits at once without writing.
func StartChase(ctx context.Context, arb *dmx.Arbiter, scenes []dmx.Frame, delay time.Duration) *Chase {
	c := &Chase{}
	c.delay.Store(int64(delay))
	metrics.SetChaseDelay(delay.Seconds())

	frames := append([]dmx.Frame(nil), scenes...)
	c.task = startTask(ctx, KindChase, func(ctx context.Context, logger zerolog.Logger) error {
		return c.run(ctx, logger, arb, frames)
	})
	return c
}

// SetDelay changes the step delay. It applies from the next sleep on.
func (c *Chase) SetDelay(d time.Duration) {
	c.delay.Store(int64(d))
	metrics.SetChaseDelay(d.Seconds())
}

// Delay returns the current step delay.
func (c *Chase) Delay() time.Duration {
	return time.Duration(c.delay.Load())
}

func (c *Chase) run(ctx context.Context, logger zerolog.Logger, arb *dmx.Arbiter, frames []dmx.Frame) error {
	if len(frames) < MinChaseScenes {
		logger.Warn().
			Str(log.FieldEvent, "chase.too_few_scenes").
			Int(log.FieldSceneCount, len(frames)).
			Msg("chase needs at least two scenes")
		return nil
	}

	return withLease(arb, KindChase, func(l *dmx.Lease) error {
		logger.Info().
			Str(log.FieldEvent, "chase.started").
			Int(log.FieldSceneCount, len(frames)).
			Int64(log.FieldDelayMS, c.Delay().Milliseconds()).
			Msg("chase started")

		for ctx.Err() == nil {
			for i := range frames {
				if ctx.Err() != nil {
					return nil
				}
				if err := l.WriteFrame(frames[i]); err != nil {
					return err
				}
				logger.Trace().Int(log.FieldSceneIndex, i).Msg("chase step")
				// An interrupted sleep only skips the rest of the delay.
				_ = sleep(ctx, c.Delay())
			}
		}
		return nil
	})
}

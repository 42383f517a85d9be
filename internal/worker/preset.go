// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/chuck/internal/dmx"
	"github.com/ManuGH/chuck/internal/log"
	"github.com/ManuGH/chuck/internal/profile"
)

// PresetVisualize keeps re-rendering the selected lights with whatever colour
// they currently hold. The orchestrator changes the colours; the worker only
// pushes them out.
type PresetVisualize struct {
	*task
	lights []*profile.Profile
}

// StartPresetVisualize renders lights over base every interval.
func StartPresetVisualize(ctx context.Context, arb *dmx.Arbiter, base dmx.Frame, lights []*profile.Profile, interval time.Duration) *PresetVisualize {
	pv := &PresetVisualize{lights: append([]*profile.Profile(nil), lights...)}
	pv.task = startTask(ctx, KindPreset, func(ctx context.Context, logger zerolog.Logger) error {
		return pv.run(ctx, logger, arb, base, interval)
	})
	return pv
}

// Lights returns the lights being rendered.
func (pv *PresetVisualize) Lights() []*profile.Profile {
	return append([]*profile.Profile(nil), pv.lights...)
}

func (pv *PresetVisualize) run(ctx context.Context, logger zerolog.Logger, arb *dmx.Arbiter, base dmx.Frame, interval time.Duration) error {
	return withLease(arb, KindPreset, func(l *dmx.Lease) error {
		logger.Info().
			Str(log.FieldEvent, "preset.started").
			Int(log.FieldLightCount, len(pv.lights)).
			Msg("preset visualisation started")

		for {
			f := base
			for _, p := range pv.lights {
				p.RenderDimmed(&f, 255)
			}
			if err := l.WriteFrame(f); err != nil {
				return err
			}
			if !sleep(ctx, interval) {
				return nil
			}
		}
	})
}

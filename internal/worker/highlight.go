// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/chuck/internal/dmx"
	"github.com/ManuGH/chuck/internal/log"
	"github.com/ManuGH/chuck/internal/profile"
)

// Highlight flashes the light being pointed at while keeping already chosen
// lights steadily on, and accumulates the chosen set.
type Highlight struct {
	*task

	mu       sync.Mutex
	selected []*profile.Profile
	pointed  *profile.Profile
}

// Selection is the result of stopping a Highlight worker. It resolves only
// after the worker has exited.
type Selection struct {
	h *Highlight
}

// Wait joins the worker and returns a copy of the chosen lights.
func (s *Selection) Wait() ([]*profile.Profile, error) {
	err := s.h.Wait()
	return s.h.Selected(), err
}

// StartHighlight renders over base, the frame on the port when selection began.
func StartHighlight(ctx context.Context, arb *dmx.Arbiter, base dmx.Frame, interval time.Duration, seed ...*profile.Profile) *Highlight {
	h := &Highlight{}
	for _, p := range seed {
		h.AddLight(p)
	}
	h.task = startTask(ctx, KindHighlight, func(ctx context.Context, logger zerolog.Logger) error {
		return h.run(ctx, logger, arb, base, interval)
	})
	return h
}

// AddLight adds p to the chosen set and points at it. Adding twice is a no-op.
func (h *Highlight) AddLight(p *profile.Profile) {
	if p == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pointed = p
	for _, s := range h.selected {
		if s == p {
			return
		}
	}
	h.selected = append(h.selected, p)
}

// Point moves the flashing cue to p without choosing it.
func (h *Highlight) Point(p *profile.Profile) {
	h.mu.Lock()
	h.pointed = p
	h.mu.Unlock()
}

// Pointed returns the light under the cue.
func (h *Highlight) Pointed() *profile.Profile {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pointed
}

// Selected returns a copy of the chosen lights in the order they were added.
func (h *Highlight) Selected() []*profile.Profile {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*profile.Profile(nil), h.selected...)
}

// StopSelection stops the worker and returns the pending selection.
func (h *Highlight) StopSelection() *Selection {
	h.Stop()
	return &Selection{h: h}
}

func (h *Highlight) frame(base dmx.Frame, on bool) dmx.Frame {
	h.mu.Lock()
	selected := append([]*profile.Profile(nil), h.selected...)
	pointed := h.pointed
	h.mu.Unlock()

	f := base
	for _, p := range selected {
		if p != pointed {
			p.RenderDimmed(&f, 255)
		}
	}
	if pointed != nil {
		level := byte(0)
		if on {
			level = 255
		}
		pointed.RenderDimmed(&f, level)
	}
	return f
}

func (h *Highlight) run(ctx context.Context, logger zerolog.Logger, arb *dmx.Arbiter, base dmx.Frame, interval time.Duration) error {
	return withLease(arb, KindHighlight, func(l *dmx.Lease) error {
		logger.Info().
			Str(log.FieldEvent, "highlight.started").
			Int(log.FieldLightCount, len(h.Selected())).
			Msg("light selection started")

		on := true
		for {
			if err := l.WriteFrame(h.frame(base, on)); err != nil {
				return err
			}
			if !sleep(ctx, interval) {
				return nil
			}
			on = !on
		}
	})
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package controller is the mode state machine. It consumes decoded commands,
// moves between operating modes, owns the lifecycle of the background workers
// and tells the heartbeat when the mode changed.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/chuck/internal/command"
	"github.com/ManuGH/chuck/internal/dmx"
	"github.com/ManuGH/chuck/internal/fsm"
	"github.com/ManuGH/chuck/internal/log"
	"github.com/ManuGH/chuck/internal/metrics"
	"github.com/ManuGH/chuck/internal/mode"
	"github.com/ManuGH/chuck/internal/profile"
	"github.com/ManuGH/chuck/internal/worker"
)

// holderName is the lease name used for the orchestrator's own DMX writes.
const holderName = "controller"

// Orchestrator runs the mode state machine. Process and Run must be called
// from a single goroutine; the accessors are safe from any goroutine.
type Orchestrator struct {
	deps   Deps
	opts   Options
	logger zerolog.Logger

	machine *fsm.Machine[mode.Mode, command.Action]

	chaseDelay atomic.Int64

	// mu guards everything below. It is held for the whole of Process.
	mu          sync.Mutex
	lightIndex  int
	presetIndex int
	selected    []*profile.Profile

	live      worker.Worker
	chase     *worker.Chase
	highlight *worker.Highlight
	preset    *worker.PresetVisualize
}

// New builds an orchestrator in Idle mode. The first fixture is primed to
// full dimmer and blue and written to the port. A write failure is returned
// unless ContinueOnIOError is set.
func New(deps Deps, opts Options) (*Orchestrator, error) {
	if deps.Arbiter == nil || deps.Profiles == nil || deps.Scenes == nil || deps.Heartbeat == nil {
		return nil, errors.New("controller: arbiter, profiles, scenes and heartbeat are required")
	}
	o := &Orchestrator{
		deps:   deps,
		opts:   opts.withDefaults(),
		logger: log.WithComponent("controller"),
	}
	o.chaseDelay.Store(int64(o.opts.ChaseDelay))
	metrics.SetChaseDelay(o.opts.ChaseDelay.Seconds())

	m, err := fsm.New(mode.Idle, o.transitions())
	if err != nil {
		return nil, fmt.Errorf("build transition table: %w", err)
	}
	o.machine = m
	metrics.SetMode(mode.Idle.String())

	if err := o.primeFirstLight(); err != nil && !o.tolerate(err) {
		return nil, err
	}
	return o, nil
}

// primeFirstLight writes the first fixture to the port.
func (o *Orchestrator) primeFirstLight() error {
	first, err := o.deps.Profiles.Get(0)
	if err != nil {
		o.logger.Warn().Str(log.FieldEvent, "controller.no_lights").Msg("no fixtures patched")
		return nil
	}
	first.SetDimmer(255)
	first.SetColor(profile.Presets[2])

	f := o.deps.Arbiter.Snapshot()
	first.Render(&f)
	if err := o.writeFrame(f); err != nil {
		return fmt.Errorf("prime %s: %w", first.Name, err)
	}
	o.logger.Info().
		Str(log.FieldEvent, "controller.light_primed").
		Str("light", first.Name).
		Msg("first fixture primed")
	return nil
}

// Mode returns the current operating mode.
func (o *Orchestrator) Mode() mode.Mode {
	return o.machine.State()
}

// ChaseDelay returns the chase step delay.
func (o *Orchestrator) ChaseDelay() time.Duration {
	return time.Duration(o.chaseDelay.Load())
}

// LightIndex returns the index of the light under the selection cursor.
func (o *Orchestrator) LightIndex() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lightIndex
}

// PresetIndex returns the active palette entry.
func (o *Orchestrator) PresetIndex() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.presetIndex
}

// Selected returns a copy of the selected lights.
func (o *Orchestrator) Selected() []*profile.Profile {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*profile.Profile(nil), o.selected...)
}

// LiveWorker returns the running worker, or nil.
func (o *Orchestrator) LiveWorker() worker.Worker {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.live
}

// Process handles one command to completion, including any worker joins.
// Only DMX failures are returned; everything else is logged.
func (o *Orchestrator) Process(ctx context.Context, cmd command.Command) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if cmd.Sender.IsValid() {
		o.deps.Heartbeat.Observe(cmd.Sender)
	}
	if err := cmd.Validate(); err != nil {
		o.logger.Debug().Err(err).Str(log.FieldEvent, "controller.invalid_command").Msg("discarding invalid command")
		return nil
	}

	notify := false
	var procErr error

	switch cmd.Packet {
	case command.PacketPoll, command.PacketPollReply:
		o.logger.Debug().
			Str(log.FieldEvent, "controller.poll").
			Str(log.FieldPacket, cmd.Packet.String()).
			Msg("poll received")

	case command.PacketData:
		cur := o.machine.State()
		switch {
		case cmd.IsUserAction():
			notify, procErr = o.dispatch(ctx, cur, cmd.Action)
		case cur == mode.ColorWheel && cmd.Data == command.DataJoystick:
			o.logger.Debug().
				Str(log.FieldEvent, "controller.joystick").
				Int("x", int(cmd.Joystick.X)).
				Int("y", int(cmd.Joystick.Y)).
				Msg("joystick input")
		default:
			// The controller sent something this mode does not expect; resend
			// the mode so it can resynchronise.
			notify = true
		}
	}
	metrics.IncCommandProcessed(cmd.Packet.String(), cmd.Action.String())

	if notify {
		o.deps.Heartbeat.SetMode(o.machine.State())
		if err := o.deps.Heartbeat.Push(); err != nil {
			o.logger.Warn().Err(err).Str(log.FieldEvent, "controller.heartbeat_failed").Msg("mode push failed")
		}
	}
	return procErr
}

func (o *Orchestrator) dispatch(ctx context.Context, cur mode.Mode, action command.Action) (bool, error) {
	out, err := o.machine.Fire(ctx, action)
	switch {
	case err == nil:
	case errors.Is(err, fsm.ErrInvalidTransition):
		metrics.IncInvalidTransition(cur.String(), action.String())
		o.logger.Debug().
			Str(log.FieldEvent, "controller.no_transition").
			Str(log.FieldMode, cur.String()).
			Str(log.FieldAction, action.String()).
			Msg("action has no effect in this mode")
		return false, nil
	case errors.Is(err, fsm.ErrRejected):
		o.logger.Info().
			Err(err).
			Str(log.FieldEvent, "controller.rejected").
			Str(log.FieldMode, cur.String()).
			Str(log.FieldAction, action.String()).
			Msg("action rejected")
		return false, nil
	default:
		return false, err
	}

	if out.Changed() {
		metrics.RecordTransition(out.From.String(), out.To.String())
		o.logger.Info().
			Str(log.FieldEvent, "controller.mode_changed").
			Str(log.FieldOldMode, out.From.String()).
			Str(log.FieldNewMode, out.To.String()).
			Str(log.FieldAction, action.String()).
			Msg("mode changed")
	}
	return out.Notify, nil
}

// Run pops and processes commands until ctx ends. A worker that dies with an
// error is reported on the next wake-up. Any live worker is stopped and joined
// before Run returns.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if err := o.stopLive(); err != nil {
			o.logger.Warn().Err(err).Str(log.FieldEvent, "controller.worker_failed").Msg("worker failed during shutdown")
		}
	}()

	o.logger.Info().Str(log.FieldEvent, "controller.started").Msg("orchestrator started")
	for {
		cmd, ok, err := o.deps.Queue.Pop(ctx, o.opts.PopTimeout)
		if err != nil {
			o.logger.Info().Str(log.FieldEvent, "controller.stopped").Msg("orchestrator stopped")
			return nil
		}
		if err := o.reap(); err != nil {
			if !o.tolerate(err) {
				return err
			}
		}
		if !ok {
			continue
		}
		if err := o.Process(ctx, cmd); err != nil {
			if !o.tolerate(err) {
				return err
			}
		}
	}
}

func (o *Orchestrator) tolerate(err error) bool {
	var ioErr *dmx.IOError
	if o.opts.ContinueOnIOError && errors.As(err, &ioErr) {
		o.logger.Error().Err(err).Str(log.FieldEvent, "controller.dmx_failed").Msg("dmx write failed, continuing")
		return true
	}
	return false
}

// reap collects a worker that exited on its own.
func (o *Orchestrator) reap() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.live == nil {
		return nil
	}
	select {
	case <-o.live.Done():
		return o.stopLive()
	default:
		return nil
	}
}

// stopLive stops and joins the live worker, if any. Callers hold o.mu.
func (o *Orchestrator) stopLive() error {
	if o.live == nil {
		return nil
	}
	w := o.live
	var err error
	if h, ok := w.(*worker.Highlight); ok {
		var lights []*profile.Profile
		lights, err = h.StopSelection().Wait()
		o.selected = lights
	} else {
		err = worker.StopAndWait(w)
	}
	o.live, o.chase, o.highlight, o.preset = nil, nil, nil, nil
	if err != nil {
		return fmt.Errorf("%s worker: %w", w.Kind(), err)
	}
	return nil
}

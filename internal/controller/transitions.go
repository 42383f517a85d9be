// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/chuck/internal/command"
	"github.com/ManuGH/chuck/internal/dmx"
	"github.com/ManuGH/chuck/internal/fsm"
	"github.com/ManuGH/chuck/internal/log"
	"github.com/ManuGH/chuck/internal/mode"
	"github.com/ManuGH/chuck/internal/profile"
	"github.com/ManuGH/chuck/internal/scene"
	"github.com/ManuGH/chuck/internal/worker"
)

type transition = fsm.Transition[mode.Mode, command.Action]

type actionFunc = func(ctx context.Context, from, to mode.Mode, event command.Action) error

var (
	errTooFewScenes   = errors.New("chase needs at least two stored scenes")
	errSceneNotStored = errors.New("current scene is not stored")
	errSceneStored    = errors.New("current scene is already stored")
)

// transitions is the mode x action table. Anything missing is a no-op.
func (o *Orchestrator) transitions() []transition {
	return []transition{
		// Idle
		{From: mode.Idle, Event: command.Left, To: mode.Idle, Action: o.browseScenes(-1)},
		{From: mode.Idle, Event: command.Right, To: mode.Idle, Action: o.browseScenes(1)},
		{From: mode.Idle, Event: command.Button1, To: mode.LightSelection, Notify: true, Action: o.beginSelection},
		{From: mode.Idle, Event: command.Button2, To: mode.Chase, Notify: true, Guard: o.enoughScenes, Action: o.startChase},
		{From: mode.Idle, Event: command.SelectShort, To: mode.Idle, Guard: o.sceneTransient, Action: o.storeScene},
		{From: mode.Idle, Event: command.SelectLong, To: mode.Idle, Guard: o.sceneStored, Action: o.deleteScene},
		{From: mode.Idle, Event: command.ComboSequenceForward, To: mode.Party, Notify: true},
		{From: mode.Idle, Event: command.ComboSequenceReverse, To: mode.Scary, Notify: true},

		// LightSelection
		{From: mode.LightSelection, Event: command.Left, To: mode.LightSelection, Action: o.moveCursor(-1)},
		{From: mode.LightSelection, Event: command.Right, To: mode.LightSelection, Action: o.moveCursor(1)},
		{From: mode.LightSelection, Event: command.SelectShort, To: mode.LightSelection, Action: o.addPointed},
		{From: mode.LightSelection, Event: command.Button1, To: mode.ControlSelection, Notify: true, Action: o.finishSelection},
		{From: mode.LightSelection, Event: command.Button2, To: mode.Idle, Notify: true, Action: o.stopWorker},

		// ControlSelection
		{From: mode.ControlSelection, Event: command.Button1, To: mode.Preset, Notify: true, Action: o.stopWorker},
		{From: mode.ControlSelection, Event: command.Button2, To: mode.LightSelection, Notify: true, Action: o.restoreWorkingScene},

		// ColorWheel and Dmx are not entered by any edge yet.
		{From: mode.ColorWheel, Event: command.Button1, To: mode.LightSelection, Notify: true, Action: o.reselect},
		{From: mode.ColorWheel, Event: command.Button2, To: mode.ControlSelection, Notify: true, Action: o.visualizeSelection},
		{From: mode.Dmx, Event: command.Button1, To: mode.LightSelection, Notify: true, Action: o.reselect},
		{From: mode.Dmx, Event: command.Button2, To: mode.ControlSelection, Notify: true, Action: o.visualizeSelection},

		// Preset
		{From: mode.Preset, Event: command.Left, To: mode.Preset, Action: o.stepPreset(-1)},
		{From: mode.Preset, Event: command.Right, To: mode.Preset, Action: o.stepPreset(1)},
		{From: mode.Preset, Event: command.Button1, To: mode.LightSelection, Notify: true, Action: o.commitPreset},
		{From: mode.Preset, Event: command.Button2, To: mode.ControlSelection, Notify: true, Action: o.visualizeSelection},

		// Chase
		{From: mode.Chase, Event: command.Up, To: mode.Chase, Action: o.adjustChase(1)},
		{From: mode.Chase, Event: command.Down, To: mode.Chase, Action: o.adjustChase(-1)},
		{From: mode.Chase, Event: command.Button2, To: mode.Idle, Notify: true, Action: o.stopWorker},

		// Party, Scary
		{From: mode.Party, Event: command.ComboButtons, To: mode.Idle, Notify: true},
		{From: mode.Scary, Event: command.ComboButtons, To: mode.Idle, Notify: true},
	}
}

// start records w as the live worker. The previous one must have been joined.
func (o *Orchestrator) start(w worker.Worker) {
	o.live = w
	switch v := w.(type) {
	case *worker.Chase:
		o.chase = v
	case *worker.Highlight:
		o.highlight = v
	case *worker.PresetVisualize:
		o.preset = v
	}
}

func (o *Orchestrator) stopWorker(context.Context, mode.Mode, mode.Mode, command.Action) error {
	return o.stopLive()
}

// writeFrame pushes f through a short-lived controller lease.
func (o *Orchestrator) writeFrame(f dmx.Frame) error {
	return o.deps.Arbiter.Do(holderName, func(l *dmx.Lease) error {
		return l.WriteFrame(f)
	})
}

// Idle

func (o *Orchestrator) browseScenes(delta int) actionFunc {
	return func(context.Context, mode.Mode, mode.Mode, command.Action) error {
		scenes := o.deps.Scenes
		var f dmx.Frame
		if delta < 0 {
			f = scenes.Last()
		} else {
			f = scenes.Next()
		}
		o.logger.Info().
			Str(log.FieldEvent, "controller.scene_browse").
			Int(log.FieldSceneIndex, scenes.CurrentIndex()).
			Int(log.FieldSceneCount, scenes.Count()).
			Msg("scene cursor moved")
		if o.opts.PreviewOnNavigate && scenes.CurrentIndex() != scene.Transient {
			return o.writeFrame(f)
		}
		return nil
	}
}

func (o *Orchestrator) beginSelection(ctx context.Context, _, _ mode.Mode, _ command.Action) error {
	if err := o.stopLive(); err != nil {
		return err
	}
	o.deps.Scenes.SetCurrent(o.deps.Arbiter.Snapshot())
	o.lightIndex = 0
	o.selected = nil

	var seed []*profile.Profile
	if p, err := o.deps.Profiles.Get(0); err == nil {
		seed = append(seed, p)
	}
	o.startHighlight(ctx, seed)
	return nil
}

func (o *Orchestrator) enoughScenes(context.Context, mode.Mode, command.Action) error {
	if n := o.deps.Scenes.Count(); n < worker.MinChaseScenes {
		return fmt.Errorf("%w: have %d", errTooFewScenes, n)
	}
	return nil
}

func (o *Orchestrator) startChase(ctx context.Context, _, _ mode.Mode, _ command.Action) error {
	if err := o.stopLive(); err != nil {
		return err
	}
	o.start(worker.StartChase(context.WithoutCancel(ctx), o.deps.Arbiter, o.deps.Scenes.All(), o.ChaseDelay()))
	return nil
}

func (o *Orchestrator) sceneTransient(context.Context, mode.Mode, command.Action) error {
	if o.deps.Scenes.CurrentIndex() != scene.Transient {
		return errSceneStored
	}
	return nil
}

func (o *Orchestrator) sceneStored(context.Context, mode.Mode, command.Action) error {
	if o.deps.Scenes.CurrentIndex() == scene.Transient {
		return errSceneNotStored
	}
	return nil
}

func (o *Orchestrator) storeScene(context.Context, mode.Mode, mode.Mode, command.Action) error {
	idx := o.deps.Scenes.Add(o.deps.Scenes.Current())
	o.logger.Info().
		Str(log.FieldEvent, "controller.scene_stored").
		Int(log.FieldSceneIndex, idx).
		Msg("scene stored")
	o.persistScenes()
	return nil
}

func (o *Orchestrator) deleteScene(context.Context, mode.Mode, mode.Mode, command.Action) error {
	if err := o.deps.Scenes.DeleteCurrent(); err != nil {
		return err
	}
	o.logger.Info().
		Str(log.FieldEvent, "controller.scene_deleted").
		Int(log.FieldSceneCount, o.deps.Scenes.Count()).
		Msg("scene deleted")
	o.persistScenes()
	return nil
}

// persistScenes saves the scene list. A failed save keeps the in-memory list.
func (o *Orchestrator) persistScenes() {
	if o.opts.SceneFile == "" {
		return
	}
	if err := o.deps.Scenes.Save(o.opts.SceneFile); err != nil {
		o.logger.Error().
			Err(err).
			Str(log.FieldEvent, "controller.scene_save_failed").
			Str(log.FieldPath, o.opts.SceneFile).
			Msg("could not persist scenes")
	}
}

// LightSelection

func (o *Orchestrator) startHighlight(ctx context.Context, seed []*profile.Profile) {
	base := o.deps.Arbiter.Snapshot()
	o.start(worker.StartHighlight(context.WithoutCancel(ctx), o.deps.Arbiter, base, o.opts.HighlightInterval, seed...))
}

func (o *Orchestrator) moveCursor(delta int) actionFunc {
	return func(context.Context, mode.Mode, mode.Mode, command.Action) error {
		n := o.deps.Profiles.Count()
		if n == 0 {
			return nil
		}
		o.lightIndex = profile.Step(o.lightIndex, delta, n)
		p, err := o.deps.Profiles.Get(o.lightIndex)
		if err != nil {
			return nil
		}
		if o.highlight != nil {
			o.highlight.Point(p)
		}
		o.logger.Debug().
			Str(log.FieldEvent, "controller.light_pointed").
			Int(log.FieldLightIndex, o.lightIndex).
			Str("light", p.Name).
			Msg("light pointed")
		return nil
	}
}

func (o *Orchestrator) addPointed(context.Context, mode.Mode, mode.Mode, command.Action) error {
	if o.highlight == nil {
		return nil
	}
	p := o.highlight.Pointed()
	if p == nil {
		p, _ = o.deps.Profiles.Get(o.lightIndex)
	}
	o.highlight.AddLight(p)
	return nil
}

func (o *Orchestrator) finishSelection(ctx context.Context, _, _ mode.Mode, _ command.Action) error {
	if err := o.stopLive(); err != nil {
		return err
	}
	o.logger.Info().
		Str(log.FieldEvent, "controller.selection_done").
		Int(log.FieldLightCount, len(o.selected)).
		Msg("lights selected")
	o.startPreset(ctx)
	return nil
}

// reselect returns to light selection with the current selection pre-chosen.
func (o *Orchestrator) reselect(ctx context.Context, _, _ mode.Mode, _ command.Action) error {
	if err := o.stopLive(); err != nil {
		return err
	}
	o.startHighlight(ctx, o.selected)
	return nil
}

// ControlSelection

func (o *Orchestrator) startPreset(ctx context.Context) {
	base := o.deps.Arbiter.Snapshot()
	o.start(worker.StartPresetVisualize(context.WithoutCancel(ctx), o.deps.Arbiter, base, o.selected, o.opts.PresetInterval))
}

func (o *Orchestrator) visualizeSelection(ctx context.Context, _, _ mode.Mode, _ command.Action) error {
	if err := o.stopLive(); err != nil {
		return err
	}
	o.startPreset(ctx)
	return nil
}

// restoreWorkingScene leaves control selection. On a DMX failure the mode
// stays put, so the visualizer is restarted.
func (o *Orchestrator) restoreWorkingScene(ctx context.Context, _, _ mode.Mode, _ command.Action) error {
	err := o.stopLive()
	if err == nil {
		err = o.writeFrame(o.deps.Scenes.Current())
	}
	if err != nil {
		o.startPreset(ctx)
		return err
	}
	o.startHighlight(ctx, o.selected)
	return nil
}

// Preset

func (o *Orchestrator) stepPreset(delta int) actionFunc {
	return func(context.Context, mode.Mode, mode.Mode, command.Action) error {
		o.presetIndex = profile.Step(o.presetIndex, delta, len(profile.Presets))
		c := profile.Presets[o.presetIndex]
		f := o.deps.Arbiter.Snapshot()
		for _, p := range o.selected {
			p.SetColor(c)
			p.RenderDimmed(&f, 255)
		}
		o.logger.Debug().
			Str(log.FieldEvent, "controller.preset").
			Int(log.FieldPresetIndex, o.presetIndex).
			Int(log.FieldLightCount, len(o.selected)).
			Msg("preset applied")
		return o.writeFrame(f)
	}
}

func (o *Orchestrator) commitPreset(ctx context.Context, _, _ mode.Mode, _ command.Action) error {
	if err := o.stopLive(); err != nil {
		return err
	}
	o.deps.Scenes.SetCurrent(o.deps.Arbiter.Snapshot())
	o.startHighlight(ctx, o.selected)
	return nil
}

// Chase

func (o *Orchestrator) adjustChase(dir int) actionFunc {
	return func(context.Context, mode.Mode, mode.Mode, command.Action) error {
		cur := o.ChaseDelay()
		next := clamp(cur+time.Duration(dir)*o.opts.ChaseStep, o.opts.MinChaseDelay, o.opts.MaxChaseDelay)
		if next == cur {
			return nil
		}
		o.chaseDelay.Store(int64(next))
		if o.chase != nil {
			o.chase.SetDelay(next)
		}
		o.logger.Info().
			Str(log.FieldEvent, "controller.chase_delay").
			Int64(log.FieldDelayMS, next.Milliseconds()).
			Msg("chase delay changed")
		return nil
	}
}

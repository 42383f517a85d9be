// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package controller

import (
	"net/netip"
	"time"

	"github.com/ManuGH/chuck/internal/dmx"
	"github.com/ManuGH/chuck/internal/mode"
	"github.com/ManuGH/chuck/internal/profile"
	"github.com/ManuGH/chuck/internal/queue"
	"github.com/ManuGH/chuck/internal/scene"
)

// Defaults for Options fields left at zero.
const (
	DefaultChaseDelay        = 100 * time.Millisecond
	DefaultMinChaseDelay     = 100 * time.Millisecond
	DefaultMaxChaseDelay     = 2 * time.Second
	DefaultChaseStep         = 100 * time.Millisecond
	DefaultHighlightInterval = 250 * time.Millisecond
	DefaultPresetInterval    = 50 * time.Millisecond
	DefaultPopTimeout        = time.Second
)

// Options tunes the orchestrator.
type Options struct {
	ChaseDelay    time.Duration
	MinChaseDelay time.Duration
	MaxChaseDelay time.Duration
	ChaseStep     time.Duration

	HighlightInterval time.Duration
	PresetInterval    time.Duration

	// PopTimeout bounds each wait on the command queue.
	PopTimeout time.Duration

	// SceneFile is where the scene list is persisted; empty keeps it in memory.
	SceneFile string

	// PreviewOnNavigate writes the scene under the cursor while browsing in idle.
	PreviewOnNavigate bool

	// ContinueOnIOError keeps Run going after a DMX write failure instead of
	// returning the error.
	ContinueOnIOError bool
}

func (o Options) withDefaults() Options {
	if o.MinChaseDelay <= 0 {
		o.MinChaseDelay = DefaultMinChaseDelay
	}
	if o.MaxChaseDelay <= 0 {
		o.MaxChaseDelay = DefaultMaxChaseDelay
	}
	if o.ChaseStep <= 0 {
		o.ChaseStep = DefaultChaseStep
	}
	if o.ChaseDelay <= 0 {
		o.ChaseDelay = DefaultChaseDelay
	}
	o.ChaseDelay = clamp(o.ChaseDelay, o.MinChaseDelay, o.MaxChaseDelay)
	if o.HighlightInterval <= 0 {
		o.HighlightInterval = DefaultHighlightInterval
	}
	if o.PresetInterval <= 0 {
		o.PresetInterval = DefaultPresetInterval
	}
	if o.PopTimeout <= 0 {
		o.PopTimeout = DefaultPopTimeout
	}
	return o
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// Notifier reports the authoritative mode to the controller.
// *heartbeat.Heartbeat satisfies it.
type Notifier interface {
	Observe(addr netip.AddrPort) bool
	SetMode(m mode.Mode)
	Push() error
}

// Deps are the collaborators the orchestrator drives.
type Deps struct {
	Arbiter   *dmx.Arbiter
	Profiles  *profile.Store
	Scenes    *scene.Store
	Queue     *queue.Queue
	Heartbeat Notifier
}

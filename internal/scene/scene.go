// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package scene keeps the ordered list of stored DMX frames and the
// navigation cursor over it.
package scene

import (
	"errors"
	"sync"

	"github.com/ManuGH/chuck/internal/dmx"
	"github.com/ManuGH/chuck/internal/metrics"
)

// Transient is the cursor value of a working frame that is not stored.
const Transient = -1

// ErrNoCurrentScene is returned when an operation needs a stored current scene.
var ErrNoCurrentScene = errors.New("no stored scene is current")

// Store is the scene list plus cursor. It is safe for concurrent use; the
// orchestrator is the only writer in practice.
type Store struct {
	mu      sync.RWMutex
	scenes  []dmx.Frame
	index   int
	current dmx.Frame
}

// NewStore returns a store holding scenes, with a blank transient current frame.
func NewStore(scenes ...dmx.Frame) *Store {
	s := &Store{index: Transient}
	s.scenes = append(s.scenes, scenes...)
	metrics.SetSceneCount(len(s.scenes))
	return s
}

// Current returns the current frame: the stored scene at the cursor or the
// transient working frame.
func (s *Store) Current() dmx.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == Transient {
		return s.current
	}
	return s.scenes[s.index]
}

// CurrentIndex returns the cursor, Transient for an unsaved working frame.
func (s *Store) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// SetCurrent makes f the transient working frame.
func (s *Store) SetCurrent(f dmx.Frame) {
	s.mu.Lock()
	s.current = f
	s.index = Transient
	s.mu.Unlock()
}

// Next advances the cursor and returns the new current frame. From Transient
// it moves to the first scene. With no scenes stored the transient frame is
// returned unchanged.
func (s *Store) Next() dmx.Frame {
	return s.step(1)
}

// Last moves the cursor back and returns the new current frame. From
// Transient it moves to the final scene.
func (s *Store) Last() dmx.Frame {
	return s.step(-1)
}

func (s *Store) step(delta int) dmx.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.scenes)
	if n == 0 {
		return s.current
	}
	switch {
	case s.index == Transient && delta > 0:
		s.index = 0
	case s.index == Transient:
		s.index = n - 1
	default:
		s.index = ((s.index+delta)%n + n) % n
	}
	return s.scenes[s.index]
}

// Add appends f as a stored scene and makes it current. It returns the new index.
func (s *Store) Add(f dmx.Frame) int {
	s.mu.Lock()
	s.scenes = append(s.scenes, f)
	s.index = len(s.scenes) - 1
	n := len(s.scenes)
	s.mu.Unlock()
	metrics.SetSceneCount(n)
	return n - 1
}

// DeleteCurrent removes the stored scene at the cursor. The cursor moves to
// the previous scene, or to the first one; with nothing left the current
// frame becomes a blank transient frame.
func (s *Store) DeleteCurrent() error {
	s.mu.Lock()
	if s.index == Transient {
		s.mu.Unlock()
		return ErrNoCurrentScene
	}
	s.scenes = append(s.scenes[:s.index], s.scenes[s.index+1:]...)
	switch {
	case len(s.scenes) == 0:
		s.index = Transient
		s.current = dmx.Frame{}
	case s.index > 0:
		s.index--
	}
	n := len(s.scenes)
	s.mu.Unlock()
	metrics.SetSceneCount(n)
	return nil
}

// Count returns the number of stored scenes.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scenes)
}

// All returns a copy of the stored scenes in order.
func (s *Store) All() []dmx.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dmx.Frame(nil), s.scenes...)
}

// replace swaps the stored scenes and resets the cursor.
func (s *Store) replace(scenes []dmx.Frame) {
	s.mu.Lock()
	s.scenes = scenes
	s.index = Transient
	s.current = dmx.Frame{}
	s.mu.Unlock()
	metrics.SetSceneCount(len(scenes))
}

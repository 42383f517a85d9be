// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package fsm is a small transition-table state machine.
package fsm

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidTransition is returned when no edge exists for (state, event).
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrRejected wraps guard failures.
	ErrRejected = errors.New("transition rejected")
)

// Transition describes a single edge in the FSM.
// Guard may reject the transition; Action performs side-effects. An edge with
// To == From is a self-loop and keeps the state.
type Transition[S comparable, E comparable] struct {
	From   S
	Event  E
	To     S
	Notify bool
	Guard  func(ctx context.Context, from S, event E) error
	Action func(ctx context.Context, from S, to S, event E) error
}

// Outcome reports the result of firing an event.
type Outcome[S comparable] struct {
	From   S
	To     S
	Notify bool
}

// Changed reports whether the state moved.
func (o Outcome[S]) Changed() bool {
	return o.From != o.To
}

type edge[S comparable, E comparable] struct {
	from  S
	event E
}

// Machine is a small, test-friendly FSM runner.
// It is strict: unknown transitions are errors and leave the state unchanged.
type Machine[S comparable, E comparable] struct {
	mu    sync.Mutex
	state S
	index map[edge[S, E]]Transition[S, E]
}

func New[S comparable, E comparable](initial S, transitions []Transition[S, E]) (*Machine[S, E], error) {
	idx := make(map[edge[S, E]]Transition[S, E], len(transitions))
	for _, t := range transitions {
		k := edge[S, E]{t.From, t.Event}
		if _, exists := idx[k]; exists {
			return nil, fmt.Errorf("duplicate transition: %v -> %v", t.From, t.Event)
		}
		idx[k] = t
	}
	return &Machine[S, E]{state: initial, index: idx}, nil
}

func (m *Machine[S, E]) State() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Fire attempts to apply an event. The state only changes when the guard and
// the action both succeed.
func (m *Machine[S, E]) Fire(ctx context.Context, event E) (Outcome[S], error) {
	m.mu.Lock()
	from := m.state
	t, ok := m.index[edge[S, E]{from, event}]
	m.mu.Unlock()

	none := Outcome[S]{From: from, To: from}
	if !ok {
		return none, fmt.Errorf("%w: state=%v event=%v", ErrInvalidTransition, from, event)
	}

	// Guard + Action are executed outside the critical section so State stays readable.
	to := t.To
	if t.Guard != nil {
		if err := t.Guard(ctx, from, event); err != nil {
			return none, fmt.Errorf("%w: %w", ErrRejected, err)
		}
	}
	if t.Action != nil {
		if err := t.Action(ctx, from, to, event); err != nil {
			return none, err
		}
	}

	m.mu.Lock()
	if m.state != from {
		cur := m.state
		m.mu.Unlock()
		return Outcome[S]{From: from, To: cur}, fmt.Errorf("concurrent transition detected: from=%v cur=%v event=%v", from, cur, event)
	}
	m.state = to
	m.mu.Unlock()

	return Outcome[S]{From: from, To: to, Notify: t.Notify}, nil
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package profile

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ManuGH/chuck/internal/dmx"
)

// ErrNoProfile is returned for an index outside the store.
var ErrNoProfile = errors.New("no such profile")

// Store is the ordered set of patched fixtures, sorted by address.
type Store struct {
	mu       sync.RWMutex
	profiles []*Profile
}

// NewStore builds a store from ps.
func NewStore(ps ...*Profile) *Store {
	s := &Store{}
	s.Replace(ps)
	return s
}

// Replace swaps the whole set, e.g. after the set file changed on disk.
func (s *Store) Replace(ps []*Profile) {
	sorted := append([]*Profile(nil), ps...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Address < sorted[j].Address })
	s.mu.Lock()
	s.profiles = sorted
	s.mu.Unlock()
}

// Count returns the number of fixtures.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// Get returns the fixture at index i.
func (s *Store) Get(i int) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.profiles) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoProfile, i, len(s.profiles))
	}
	return s.profiles[i], nil
}

// All returns a copy of the fixture list.
func (s *Store) All() []*Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Profile(nil), s.profiles...)
}

// RenderAll writes every fixture into f.
func (s *Store) RenderAll(f *dmx.Frame) {
	for _, p := range s.All() {
		p.Render(f)
	}
}

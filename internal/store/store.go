// Package store holds the live, in-memory test state keyed by test
// id (spec §4.8). It is grounded on vaultaire's internal/cache shard
// pattern: one lock per key rather than one lock for the whole map, so
// operations on distinct test ids never contend.
package store

import (
	"sync"

	"github.com/FairForge/loadforge/internal/loadmodel"
)

type entry struct {
	mu    sync.Mutex
	state *loadmodel.TestState
}

// Store is a keyed mapping from test id to TestState, with per-id
// mutation discipline. It never evicts; completed states remain until
// process exit (spec §4.8).
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

func (s *Store) entryFor(id string) *entry {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		return e
	}
	e = &entry{}
	s.entries[id] = e
	return e
}

// Set installs state as the current value for id, replacing any prior
// value.
func (s *Store) Set(id string, state *loadmodel.TestState) {
	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
}

// Get returns a snapshot of the state for id. The bool is false if id
// is unknown.
func (s *Store) Get(id string) (loadmodel.Snapshot, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return loadmodel.Snapshot{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return loadmodel.Snapshot{}, false
	}
	return e.state.Snapshot(), true
}

// Update applies mutator to the state for id under id's exclusive
// section and returns the resulting snapshot. It is a no-op (and
// returns false) if id is unknown.
func (s *Store) Update(id string, mutator func(*loadmodel.TestState)) (loadmodel.Snapshot, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return loadmodel.Snapshot{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return loadmodel.Snapshot{}, false
	}
	mutator(e.state)
	return e.state.Snapshot(), true
}

// Delete removes id from the store entirely.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

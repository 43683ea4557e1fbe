package catalog

import (
	"sort"
	"sync"
)

// UnlockedSet tracks which episode ids the viewer may play. It is the union
// of server-confirmed unlocks and provisional entries staged before the
// server has confirmed an unlock. The set only grows during a session; the
// sole removal path is rolling back a provisional entry the server rejected.
type UnlockedSet struct {
	mu        sync.RWMutex
	confirmed map[string]struct{}
	pending   map[string]struct{}
}

// NewUnlockedSet builds a set seeded with server-confirmed episode ids.
func NewUnlockedSet(confirmed ...string) *UnlockedSet {
	s := &UnlockedSet{
		confirmed: make(map[string]struct{}, len(confirmed)),
		pending:   make(map[string]struct{}),
	}
	for _, id := range confirmed {
		if id != "" {
			s.confirmed[id] = struct{}{}
		}
	}
	return s
}

// Contains reports whether the episode is playable, counting provisional
// entries awaiting server confirmation.
func (s *UnlockedSet) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.confirmed[id]; ok {
		return true
	}
	_, ok := s.pending[id]
	return ok
}

// Add records a server-confirmed unlock.
func (s *UnlockedSet) Add(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmed[id] = struct{}{}
	delete(s.pending, id)
}

// Stage records a provisional unlock pending server confirmation.
func (s *UnlockedSet) Stage(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.confirmed[id]; ok {
		return
	}
	s.pending[id] = struct{}{}
}

// Commit promotes a provisional entry to confirmed.
func (s *UnlockedSet) Commit(id string) {
	s.Add(id)
}

// Rollback removes a provisional entry the server rejected. Confirmed
// entries are never removed.
func (s *UnlockedSet) Rollback(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// Rebuild replaces the confirmed entries with a fresh server snapshot while
// preserving entries still awaiting confirmation.
func (s *UnlockedSet) Rebuild(confirmed []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmed = make(map[string]struct{}, len(confirmed))
	for _, id := range confirmed {
		if id != "" {
			s.confirmed[id] = struct{}{}
			delete(s.pending, id)
		}
	}
}

// Snapshot returns all playable episode ids in sorted order.
func (s *UnlockedSet) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.confirmed)+len(s.pending))
	for id := range s.confirmed {
		ids = append(ids, id)
	}
	for id := range s.pending {
		if _, ok := s.confirmed[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of playable episode ids.
func (s *UnlockedSet) Len() int {
	return len(s.Snapshot())
}

// Package watch provides the concurrency-safe membership sets that record
// which channel ids each listener kind is monitoring.
//
// Membership is a desire to monitor; it is independent of whether any
// cached state exists for the id yet. Loops iterate over snapshots so
// callers may mutate the set at any time.
package watch

import (
	"sort"
	"sync"
)

// Set is a thread-safe set of channel ids.
//
// The zero value is not usable; create with [NewSet].
type Set struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewSet creates an empty [Set].
func NewSet() *Set {
	return &Set{ids: make(map[string]struct{})}
}

// Add inserts id into the set.
// Returns true if the id was not already present.
func (s *Set) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Remove deletes id from the set.
// Returns true if the id was present.
func (s *Set) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; !ok {
		return false
	}
	delete(s.ids, id)
	return true
}

// Contains reports whether id is in the set.
func (s *Set) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of ids in the set.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Empty reports whether the set has no members.
func (s *Set) Empty() bool {
	return s.Len() == 0
}

// Snapshot returns the current members in sorted order.
// The returned slice is a copy; loops iterate it without holding any lock.
func (s *Set) Snapshot() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	// stable order so the follower loop visits channels fairly
	sort.Strings(ids)
	return ids
}

// Clear removes all members.
func (s *Set) Clear() {
	s.mu.Lock()
	s.ids = make(map[string]struct{})
	s.mu.Unlock()
}

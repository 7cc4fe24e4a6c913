package cache

import (
	"sync"
	"time"
)

// State is the cached snapshot for one channel.
//
// Liveness is tri-state: unknown until the first successful snapshot for
// the channel, strictly boolean afterwards. Title and game id are unknown
// whenever the channel is not known to be live, so a later change event
// cannot fire against stale data.
//
// All methods are safe for concurrent use; the liveness and follower
// loops may touch the same channel at the same time.
type State struct {
	mu              sync.Mutex
	userName        string
	isLive          *bool
	title           *string
	gameID          *string
	followerCount   *int
	lastFollowCheck *time.Time
}

// UserName returns the display name, or "" if never resolved.
func (s *State) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userName
}

// SetUserNameIfEmpty records the display name the first time any API
// response carries it. Later responses do not overwrite it.
func (s *State) SetUserNameIfEmpty(name string) {
	s.mu.Lock()
	if s.userName == "" {
		s.userName = name
	}
	s.mu.Unlock()
}

// IsLive returns the cached liveness and whether it has ever been observed.
func (s *State) IsLive() (live, known bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isLive == nil {
		return false, false
	}
	return *s.isLive, true
}

// MarkLive records that the channel is live with the given title and
// game id.
func (s *State) MarkLive(title, gameID string) {
	live := true
	s.mu.Lock()
	s.isLive = &live
	s.title = &title
	s.gameID = &gameID
	s.mu.Unlock()
}

// MarkOffline records that the channel is not live and clears title and
// game id in the same step, so stale values cannot seed a spurious
// change event on the next go-live.
func (s *State) MarkOffline() {
	live := false
	s.mu.Lock()
	s.isLive = &live
	s.title = nil
	s.gameID = nil
	s.mu.Unlock()
}

// Title returns the cached title and whether one is known.
func (s *State) Title() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.title == nil {
		return "", false
	}
	return *s.title, true
}

// GameID returns the cached game id and whether one is known.
func (s *State) GameID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gameID == nil {
		return "", false
	}
	return *s.gameID, true
}

// SwapFollowerCount stores the new total and returns the previous one,
// if any.
func (s *State) SwapFollowerCount(count int) (old int, known bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.followerCount != nil {
		old, known = *s.followerCount, true
	}
	s.followerCount = &count
	return old, known
}

// LastFollowCheck returns the follow watermark and whether one is set.
func (s *State) LastFollowCheck() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastFollowCheck == nil {
		return time.Time{}, false
	}
	return *s.lastFollowCheck, true
}

// SetLastFollowCheck advances the follow watermark.
func (s *State) SetLastFollowCheck(t time.Time) {
	s.mu.Lock()
	s.lastFollowCheck = &t
	s.mu.Unlock()
}

// Package backoff provides the exponential delay strategy used by the
// polling loops.
//
// Delays grow as base × 2^failures. Failures are counted explicitly via
// [Strategy.Failure] and cleared via [Strategy.Reset]; the strategy never
// increments itself. The base delay can be replaced at runtime without
// disturbing the failure counter, so a rate reconfiguration does not
// erase an in-progress backoff posture.
package backoff

import (
	"math/rand"
	"sync"
	"time"
)

// maxShift caps the exponent so the delay computation cannot overflow.
const maxShift = 30

// Strategy computes exponential backoff delays.
//
// All methods are safe for concurrent use. A zero Strategy is not valid;
// use [New].
type Strategy struct {
	mu       sync.Mutex
	base     time.Duration
	failures int
	jitter   bool
}

// New creates a [Strategy] with the given base delay.
//
// If jitter is enabled, each delay is scaled by a random factor in
// [0.5, 1.0) to spread out call timing.
func New(base time.Duration, jitter bool) *Strategy {
	return &Strategy{base: base, jitter: jitter}
}

// NextDelay returns the delay to wait before the next attempt:
// base × 2^failures, optionally jittered.
func (s *Strategy) NextDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift := s.failures
	if shift > maxShift {
		shift = maxShift
	}
	d := s.base * (1 << shift)
	if s.jitter {
		d = time.Duration(float64(d) * (0.5 + rand.Float64()/2))
	}
	return d
}

// Failure records one failed attempt, doubling subsequent delays.
func (s *Strategy) Failure() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

// Reset clears the failure counter, returning delays to the base value.
// Called after every successful external call.
func (s *Strategy) Reset() {
	s.mu.Lock()
	s.failures = 0
	s.mu.Unlock()
}

// SetBase replaces the base delay in place.
//
// The failure counter is preserved so that a rate reconfiguration during
// an API outage does not collapse the backoff.
func (s *Strategy) SetBase(base time.Duration) {
	s.mu.Lock()
	s.base = base
	s.mu.Unlock()
}

// Base returns the current base delay.
func (s *Strategy) Base() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

// Failures returns the current consecutive-failure count.
func (s *Strategy) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

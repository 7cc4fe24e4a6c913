// Package loop runs the self-rescheduling polling loop for one listener
// kind.
//
// Each [Runner] owns at most one long-lived worker goroutine. The worker
// waits a backoff-controlled delay, executes one unit of work, and loops;
// it exists only while the listener's watch set is non-empty. Starting
// and stopping uses a cheap unguarded activity check followed by a
// mutex-guarded re-check, so concurrent enable/disable calls can never
// create duplicate workers.
package loop

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gazconroy/twitch4j/internal/backoff"
)

// Task is one schedulable unit of work: process the next pending item
// (one page, or one channel) and report whether the following unit may
// run without delay.
//
// Run must not block beyond the single external call it performs, and
// must re-validate relevance itself, since cancellation is cooperative
// and cannot interrupt an in-flight call.
type Task interface {
	Run(ctx context.Context) (skipDelay bool)
}

// Runner starts and stops the polling worker for one listener kind.
//
// All methods are safe for concurrent use. The two listener kinds use
// independent Runners and never block on each other.
type Runner struct {
	name        string
	task        Task
	backoff     *backoff.Strategy
	wantRunning func() bool
	logger      *slog.Logger

	mu     sync.Mutex
	active atomic.Bool
	cancel context.CancelFunc
}

// NewRunner creates a [Runner] for the given task.
//
// wantRunning reports whether the loop is desired (the watch set is
// non-empty); it is consulted on every [Runner.Update] and checked again
// under the lock before any state change.
func NewRunner(name string, task Task, bo *backoff.Strategy, wantRunning func() bool, logger *slog.Logger) *Runner {
	return &Runner{
		name:        name,
		task:        task,
		backoff:     bo,
		wantRunning: wantRunning,
		logger:      logger,
	}
}

// Update re-evaluates whether the worker should be running and starts or
// stops it accordingly. Callers invoke this after every watch set
// mutation; redundant calls are cheap no-ops that take no lock.
func (r *Runner) Update() {
	if r.wantRunning() {
		// unguarded fast path; the lock is only taken when a start is plausible
		if r.active.Load() {
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.wantRunning() || r.active.Load() {
			return
		}
		r.start()
	} else {
		if !r.active.Load() {
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.wantRunning() || !r.active.Load() {
			return
		}
		r.stopLocked()
	}
}

// Stop cancels the worker regardless of the watch set. Idempotent and
// safe to call repeatedly; it does not wait for an in-flight unit of
// work to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active.Load() {
		r.stopLocked()
	}
}

// Active reports whether a worker is currently scheduled or running.
func (r *Runner) Active() bool {
	return r.active.Load()
}

// start launches the worker goroutine. Caller holds r.mu.
func (r *Runner) start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.active.Store(true)
	r.logger.Debug("listener started", "listener", r.name)

	go r.work(ctx)
}

// stopLocked cancels the worker and resets backoff to its base posture.
// Caller holds r.mu.
func (r *Runner) stopLocked() {
	r.cancel()
	r.cancel = nil
	r.active.Store(false)
	// abrupt reset rather than gradual decay; accepted imprecision
	r.backoff.Reset()
	r.logger.Debug("listener stopped", "listener", r.name)
}

// work is the long-lived worker loop. The first unit always waits one
// full backoff delay; immediate-first is disabled. A unit reporting
// skipDelay schedules its successor without waiting.
func (r *Runner) work(ctx context.Context) {
	timer := time.NewTimer(r.backoff.NextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		skipDelay := r.task.Run(ctx)

		// re-check before rearming: the loop may have been stopped while
		// the unit was in flight
		if ctx.Err() != nil {
			return
		}

		if skipDelay {
			timer.Reset(0)
		} else {
			timer.Reset(r.backoff.NextDelay())
		}
	}
}

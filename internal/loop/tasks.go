package loop

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gazconroy/twitch4j/helix"
	"github.com/gazconroy/twitch4j/internal/backoff"
	"github.com/gazconroy/twitch4j/internal/diff"
	"github.com/gazconroy/twitch4j/internal/watch"
)

// StreamSource fetches liveness snapshots for a list of channel ids.
type StreamSource interface {
	StreamsByID(ctx context.Context, channelIDs []string) ([]helix.Stream, error)
}

// FollowSource fetches one page of recent followers for a channel.
type FollowSource interface {
	FollowersByID(ctx context.Context, channelID string, limit int) (*helix.FollowPage, error)
}

// StreamTask is the liveness loop's unit of work: fetch and diff one page
// of up to [helix.MaxPageSize] watched channels. A full cycle snapshots
// the watch set once and works through its chunks on successive runs;
// chunks are never fetched concurrently, so one page's rate-limit cost is
// paid per unit.
type StreamTask struct {
	source  StreamSource
	engine  *diff.Engine
	set     *watch.Set
	backoff *backoff.Strategy
	logger  *slog.Logger

	mu      sync.Mutex
	pending [][]string
}

// NewStreamTask creates the liveness [Task].
func NewStreamTask(source StreamSource, engine *diff.Engine, set *watch.Set, bo *backoff.Strategy, logger *slog.Logger) *StreamTask {
	return &StreamTask{source: source, engine: engine, set: set, backoff: bo, logger: logger}
}

// Run implements [Task]. Every run consumes API rate limit, so the next
// unit always waits a full delay.
func (t *StreamTask) Run(ctx context.Context) bool {
	t.mu.Lock()
	if len(t.pending) == 0 {
		t.pending = chunk(t.set.Snapshot(), helix.MaxPageSize)
	}
	if len(t.pending) == 0 {
		t.mu.Unlock()
		return false
	}
	page := t.pending[0]
	t.pending = t.pending[1:]
	t.mu.Unlock()

	streams, err := t.source.StreamsByID(ctx, page)
	if err != nil {
		// skip all cache mutation and events for this page
		t.backoff.Failure()
		t.logger.Error("failed to check for stream events", "error", err)
		return false
	}
	t.backoff.Reset()

	t.engine.ApplyStreamPage(page, streams, t.set.Contains)
	return false
}

// FollowTask is the follower loop's unit of work: check a single channel.
// Channels are visited in stable order from a snapshot of the watch set,
// wrapping to a fresh snapshot once exhausted.
type FollowTask struct {
	source  FollowSource
	engine  *diff.Engine
	set     *watch.Set
	backoff *backoff.Strategy
	logger  *slog.Logger

	mu    sync.Mutex
	queue []string
}

// NewFollowTask creates the follower [Task].
func NewFollowTask(source FollowSource, engine *diff.Engine, set *watch.Set, bo *backoff.Strategy, logger *slog.Logger) *FollowTask {
	return &FollowTask{source: source, engine: engine, set: set, backoff: bo, logger: logger}
}

// Run implements [Task]. Units that make no external call (a channel that
// was disabled since the snapshot, or a first-ever check that only seeds
// the watermark) report skipDelay so the next channel is checked
// immediately.
func (t *FollowTask) Run(ctx context.Context) bool {
	t.mu.Lock()
	if len(t.queue) == 0 {
		t.queue = t.set.Snapshot()
	}
	if len(t.queue) == 0 {
		t.mu.Unlock()
		return false
	}
	id := t.queue[0]
	t.queue = t.queue[1:]
	t.mu.Unlock()

	if !t.set.Contains(id) {
		return true
	}

	if t.engine.BootstrapFollowWatermark(id) {
		// bootstrap tick: watermark seeded, no call made, no diff run
		return true
	}

	page, err := t.source.FollowersByID(ctx, id, helix.MaxPageSize)
	if err != nil {
		t.backoff.Failure()
		t.logger.Error("failed to check for follow events", "channel_id", id, "error", err)
		return false
	}
	t.backoff.Reset()

	// the channel may have been disabled while the call was in flight
	if !t.set.Contains(id) {
		return false
	}

	t.engine.ApplyFollowPage(id, page)
	return false
}

// chunk splits ids into pages of at most size elements.
func chunk(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	pages := make([][]string, 0, (len(ids)+size-1)/size)
	for len(ids) > size {
		pages = append(pages, ids[:size])
		ids = ids[size:]
	}
	return append(pages, ids)
}

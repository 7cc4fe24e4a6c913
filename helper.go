package twitch4j

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gazconroy/twitch4j/events"
	"github.com/gazconroy/twitch4j/helix"
	"github.com/gazconroy/twitch4j/internal/backoff"
	"github.com/gazconroy/twitch4j/internal/cache"
	"github.com/gazconroy/twitch4j/internal/diff"
	"github.com/gazconroy/twitch4j/internal/loop"
	"github.com/gazconroy/twitch4j/internal/watch"
)

// APISource is the narrow surface of the upstream API that the helper
// needs. [helix.Client] implements it; tests substitute fakes.
type APISource interface {
	// StreamsByID fetches the live broadcasts among the given channel
	// ids. At most [helix.MaxPageSize] ids per call.
	StreamsByID(ctx context.Context, channelIDs []string) ([]helix.Stream, error)

	// FollowersByID fetches one page of recent followers plus the total
	// follower count for a channel.
	FollowersByID(ctx context.Context, channelID string, limit int) (*helix.FollowPage, error)

	// UsersByLogin resolves login names to accounts. At most
	// [helix.MaxPageSize] names per call.
	UsersByLogin(ctx context.Context, logins []string) ([]helix.User, error)
}

// ClientHelper converts the polled snapshot API into an edge-triggered
// event stream for two listener kinds: channel liveness (go-live,
// go-offline, title and game changes) and followers (new follower,
// follower count changes).
//
// Channels are registered through the enable/disable listener methods.
// Each listener kind runs its own polling loop only while at least one
// channel is registered for it; loops start and stop automatically as
// the watch sets change. Events are delivered to the [events.Publisher]
// supplied at construction.
//
// All methods are safe for concurrent use. Create with [New], release
// with [ClientHelper.Close].
type ClientHelper struct {
	source    APISource
	publisher events.Publisher
	logger    *slog.Logger

	cache     *cache.Cache
	engine    *diff.Engine
	liveSet   *watch.Set
	followSet *watch.Set

	liveBackoff   *backoff.Strategy
	followBackoff *backoff.Strategy
	liveRunner    *loop.Runner
	followRunner  *loop.Runner
}

// New creates a [ClientHelper] polling the given source and publishing
// to the given sink.
//
// Defaults: 1 second base delay per loop, no jitter, 10 minute cache
// idle TTL, 10 000 cache entries, [slog.Default] logging. See [Option]
// for overrides.
func New(source APISource, publisher events.Publisher, opts ...Option) (*ClientHelper, error) {
	if source == nil {
		return nil, fmt.Errorf("api source is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher is required")
	}

	cfg := &helperConfig{
		baseDelay:  defaultBaseDelay,
		cacheTTL:   cache.DefaultTTL,
		maxEntries: cache.DefaultMaxEntries,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &ClientHelper{
		source:        source,
		publisher:     publisher,
		logger:        logger,
		cache:         cache.New(cfg.cacheTTL, cfg.maxEntries),
		liveSet:       watch.NewSet(),
		followSet:     watch.NewSet(),
		liveBackoff:   backoff.New(cfg.baseDelay, cfg.jitter),
		followBackoff: backoff.New(cfg.baseDelay, cfg.jitter),
	}
	h.engine = diff.New(h.cache, publisher, logger)

	streamTask := loop.NewStreamTask(source, h.engine, h.liveSet, h.liveBackoff, logger)
	followTask := loop.NewFollowTask(source, h.engine, h.followSet, h.followBackoff, logger)
	h.liveRunner = loop.NewRunner("stream-status", streamTask, h.liveBackoff, func() bool { return !h.liveSet.Empty() }, logger)
	h.followRunner = loop.NewRunner("followers", followTask, h.followBackoff, func() bool { return !h.followSet.Empty() }, logger)

	return h, nil
}

// EnableStreamEventListener registers channels for liveness events by
// display name.
//
// Names are resolved in batches of up to [helix.MaxPageSize]. Resolution
// is all-or-nothing: if any name does not resolve to exactly one
// account, the call is logged, no channel is registered, and the error
// is returned.
func (h *ClientHelper) EnableStreamEventListener(ctx context.Context, channelNames ...string) error {
	users, err := h.resolveUsers(ctx, channelNames)
	if err != nil {
		h.logger.Error("failed to add channels to stream event listener", "error", err)
		return err
	}
	for _, u := range users {
		h.EnableStreamEventListenerForID(u.ID, u.Login)
	}
	return nil
}

// EnableStreamEventListenerForID registers a channel for liveness events
// without any API call. Returns true if the channel was newly added;
// re-enabling an already watched channel is a no-op that still
// re-evaluates the loops.
func (h *ClientHelper) EnableStreamEventListenerForID(channelID, channelName string) bool {
	added := h.liveSet.Add(channelID)
	if !added {
		h.logger.Info("channel already added for stream events", "channel", channelName)
	} else {
		h.cache.GetOrCreate(channelID, channelName)
	}
	h.updateListeners()
	return added
}

// DisableStreamEventListener removes channels from liveness watching by
// display name, with the same all-or-nothing resolution rules as
// [ClientHelper.EnableStreamEventListener].
func (h *ClientHelper) DisableStreamEventListener(ctx context.Context, channelNames ...string) error {
	users, err := h.resolveUsers(ctx, channelNames)
	if err != nil {
		h.logger.Error("failed to remove channels from stream event listener", "error", err)
		return err
	}
	for _, u := range users {
		h.DisableStreamEventListenerForID(u.ID)
	}
	return nil
}

// DisableStreamEventListenerForID removes a channel from liveness
// watching without any API call and drops its cached state. Returns
// true if the channel was being watched.
func (h *ClientHelper) DisableStreamEventListenerForID(channelID string) bool {
	removed := h.liveSet.Remove(channelID)
	h.cache.Invalidate(channelID)
	h.updateListeners()
	return removed
}

// EnableFollowEventListener registers channels for follower events by
// display name, with the same resolution rules as
// [ClientHelper.EnableStreamEventListener].
func (h *ClientHelper) EnableFollowEventListener(ctx context.Context, channelNames ...string) error {
	users, err := h.resolveUsers(ctx, channelNames)
	if err != nil {
		h.logger.Error("failed to add channels to follow listener", "error", err)
		return err
	}
	for _, u := range users {
		h.EnableFollowEventListenerForID(u.ID, u.Login)
	}
	return nil
}

// EnableFollowEventListenerForID registers a channel for follower events
// without any API call. Returns true if the channel was newly added.
func (h *ClientHelper) EnableFollowEventListenerForID(channelID, channelName string) bool {
	added := h.followSet.Add(channelID)
	if !added {
		h.logger.Info("channel already added for follow events", "channel", channelName)
	} else {
		h.cache.GetOrCreate(channelID, channelName)
	}
	h.updateListeners()
	return added
}

// DisableFollowEventListener removes channels from follower watching by
// display name.
func (h *ClientHelper) DisableFollowEventListener(ctx context.Context, channelNames ...string) error {
	users, err := h.resolveUsers(ctx, channelNames)
	if err != nil {
		h.logger.Error("failed to remove channels from follow listener", "error", err)
		return err
	}
	for _, u := range users {
		h.DisableFollowEventListenerForID(u.ID)
	}
	return nil
}

// DisableFollowEventListenerForID removes a channel from follower
// watching without any API call and drops its cached state. Returns
// true if the channel was being watched.
func (h *ClientHelper) DisableFollowEventListenerForID(channelID string) bool {
	removed := h.followSet.Remove(channelID)
	h.cache.Invalidate(channelID)
	h.updateListeners()
	return removed
}

// SetCallRate rebases both loops' delays to the given maximum number of
// API calls per second. Current failure counters are preserved.
func (h *ClientHelper) SetCallRate(callsPerSecond int64) error {
	if callsPerSecond <= 0 {
		return fmt.Errorf("call rate must be positive, got %d", callsPerSecond)
	}
	return h.SetCallDelay(time.Duration(int64(time.Second) / callsPerSecond))
}

// SetCallDelay rebases both loops' delays to the given minimum delay
// between API calls. Current failure counters are preserved, so an
// in-progress backoff keeps its posture under the new base.
func (h *ClientHelper) SetCallDelay(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("call delay must be positive, got %v", d)
	}
	h.liveBackoff.SetBase(d)
	h.followBackoff.SetBase(d)
	return nil
}

// StreamListenerCount returns how many channels are watched for liveness.
func (h *ClientHelper) StreamListenerCount() int {
	return h.liveSet.Len()
}

// FollowListenerCount returns how many channels are watched for followers.
func (h *ClientHelper) FollowListenerCount() int {
	return h.followSet.Len()
}

// Close stops both polling loops and clears the watch sets. It is
// idempotent and does not wait for in-flight API calls, so an event may
// still be published briefly after Close returns.
func (h *ClientHelper) Close() {
	h.liveRunner.Stop()
	h.followRunner.Stop()
	h.liveSet.Clear()
	h.followSet.Clear()
}

// updateListeners re-evaluates both loops after any watch set mutation.
func (h *ClientHelper) updateListeners() {
	h.liveRunner.Update()
	h.followRunner.Update()
}

// resolveUsers resolves display names to accounts in batches, requiring
// every name to match exactly one account. On any miss the whole call
// fails and nothing is returned.
func (h *ClientHelper) resolveUsers(ctx context.Context, names []string) ([]helix.User, error) {
	if len(names) == 0 {
		return nil, nil
	}

	byLogin := make(map[string]helix.User, len(names))
	for start := 0; start < len(names); start += helix.MaxPageSize {
		end := start + helix.MaxPageSize
		if end > len(names) {
			end = len(names)
		}
		users, err := h.source.UsersByLogin(ctx, names[start:end])
		if err != nil {
			return nil, fmt.Errorf("user lookup failed: %w", err)
		}
		for _, u := range users {
			byLogin[strings.ToLower(u.Login)] = u
		}
	}

	resolved := make([]helix.User, 0, len(names))
	for _, name := range names {
		u, ok := byLogin[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("channel %q did not resolve to exactly one user", name)
		}
		resolved = append(resolved, u)
	}
	return resolved, nil
}

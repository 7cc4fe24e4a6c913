// Package diff compares fetched API snapshots against cached channel
// state, updates the cache, and publishes the resulting domain events.
//
// The engine is the sole writer of cached channel state. Events are
// edge-triggered: a snapshot that matches the cache produces nothing.
package diff

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gazconroy/twitch4j/events"
	"github.com/gazconroy/twitch4j/helix"
	"github.com/gazconroy/twitch4j/internal/cache"
)

// Engine owns all cache mutation and event emission decisions.
type Engine struct {
	cache     *cache.Cache
	publisher events.Publisher
	logger    *slog.Logger
}

// New creates an [Engine] writing to the given cache and sink.
func New(c *cache.Cache, publisher events.Publisher, logger *slog.Logger) *Engine {
	return &Engine{cache: c, publisher: publisher, logger: logger}
}

// ApplyStreamPage processes one successful page of a liveness snapshot.
//
// ids are the channel ids that were requested; streams are the returned
// live broadcasts (absence means not live). stillWatched re-validates
// relevance per id, since the fetch may have raced a disable call; ids
// that are no longer watched are skipped without cache mutation.
//
// Per channel, at most one of go-live / go-offline fires, and title or
// game change events fire only when the channel was already live before
// this page, never in the same page as go-live.
func (e *Engine) ApplyStreamPage(ids []string, streams []helix.Stream, stillWatched func(string) bool) {
	byID := make(map[string]*helix.Stream, len(streams))
	for i := range streams {
		byID[streams[i].UserID] = &streams[i]
	}

	for _, id := range ids {
		if !stillWatched(id) {
			continue
		}
		e.applyStream(id, byID[id])
	}
}

// applyStream diffs a single channel against its cached state.
func (e *Engine) applyStream(id string, stream *helix.Stream) {
	st := e.cache.GetOrCreate(id, "")
	if stream != nil {
		st.SetUserNameIfEmpty(stream.UserName)
	}
	channel := events.Channel{ID: id, Name: st.UserName()}

	prevLive, known := st.IsLive()

	if stream != nil && stream.IsLive() {
		wentLive := known && !prevLive
		wasAlreadyLive := known && prevLive

		prevTitle, titleKnown := st.Title()
		titleChanged := wasAlreadyLive && titleKnown && !strings.EqualFold(prevTitle, stream.Title)

		prevGame, gameKnown := st.GameID()
		gameChanged := wasAlreadyLive && gameKnown && prevGame != stream.GameID

		// cache reflects the latest snapshot whether or not anything fired
		st.MarkLive(stream.Title, stream.GameID)

		if wentLive {
			e.publish(events.ChannelGoLiveEvent{
				Metadata: events.NewMetadata(),
				Channel:  channel,
				Title:    stream.Title,
				GameID:   stream.GameID,
			})
		}
		if titleChanged {
			e.publish(events.ChannelChangeTitleEvent{
				Metadata: events.NewMetadata(),
				Channel:  channel,
				OldTitle: prevTitle,
				NewTitle: stream.Title,
			})
		}
		if gameChanged {
			e.publish(events.ChannelChangeGameEvent{
				Metadata:  events.NewMetadata(),
				Channel:   channel,
				OldGameID: prevGame,
				NewGameID: stream.GameID,
			})
		}
		return
	}

	wentOffline := known && prevLive
	st.MarkOffline()

	if wentOffline {
		e.publish(events.ChannelGoOfflineEvent{
			Metadata: events.NewMetadata(),
			Channel:  channel,
		})
	}
}

// BootstrapFollowWatermark initialises the follow watermark for a channel
// that has never been checked, returning true when it did so.
//
// A true return means the caller should skip the external call for this
// tick entirely; the first real fetch happens on the channel's next turn.
func (e *Engine) BootstrapFollowWatermark(id string) bool {
	st := e.cache.GetOrCreate(id, "")
	if _, ok := st.LastFollowCheck(); ok {
		return false
	}
	st.SetLastFollowCheck(time.Now())
	return true
}

// ApplyFollowPage processes one successful follower page for a channel.
//
// A follow event fires for every record strictly newer than the previous
// watermark. The watermark then advances to the newest timestamp seen in
// the page; an empty page leaves it unchanged. Detection is at-least-once
// and bounded by the page size: more follows than one page within one
// interval means the excess is never reported.
func (e *Engine) ApplyFollowPage(id string, page *helix.FollowPage) {
	st := e.cache.GetOrCreate(id, "")
	if len(page.Follows) > 0 {
		st.SetUserNameIfEmpty(page.Follows[0].ToName)
	}
	channel := events.Channel{ID: id, Name: st.UserName()}

	oldTotal, known := st.SwapFollowerCount(page.Total)
	if known && oldTotal != page.Total {
		e.publish(events.ChannelFollowCountUpdateEvent{
			Metadata: events.NewMetadata(),
			Channel:  channel,
			OldTotal: oldTotal,
			NewTotal: page.Total,
		})
	}

	watermark, hasWatermark := st.LastFollowCheck()
	if !hasWatermark {
		// enforced by BootstrapFollowWatermark; a missing watermark here
		// means the cache entry was rebuilt mid-flight, so treat the page
		// as a first observation and emit nothing
		e.logger.Warn("follow watermark missing, re-bootstrapping", "channel_id", id)
		e.advanceWatermark(st, time.Time{}, page.Follows)
		return
	}

	for _, f := range page.Follows {
		if f.FollowedAt.After(watermark) {
			e.publish(events.FollowEvent{
				Metadata:   events.NewMetadata(),
				Channel:    channel,
				User:       events.User{ID: f.FromID, Name: f.FromName},
				FollowedAt: f.FollowedAt,
			})
		}
	}

	e.advanceWatermark(st, watermark, page.Follows)
}

// advanceWatermark moves the watermark to the newest timestamp in the
// page. The watermark never goes backwards, and an empty page leaves it
// untouched.
func (e *Engine) advanceWatermark(st *cache.State, watermark time.Time, follows []helix.Follow) {
	if len(follows) == 0 {
		return
	}
	newest := watermark
	for _, f := range follows {
		if f.FollowedAt.After(newest) {
			newest = f.FollowedAt
		}
	}
	if newest.After(watermark) || watermark.IsZero() {
		st.SetLastFollowCheck(newest)
	}
}

// publish hands an event to the sink with panic recovery, so a
// misbehaving publisher cannot kill a polling loop.
func (e *Engine) publish(ev events.Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event publisher panicked",
				"panic", r,
				"event_id", ev.EventID(),
			)
		}
	}()
	e.publisher.Publish(ev)
}

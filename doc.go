// Package twitch4j turns the stateless, rate-limited snapshot API into
// an edge-triggered stream of channel events.
//
// The [ClientHelper] watches a dynamic set of channels across two
// independent concerns — liveness and followers — by polling the API on
// backoff-controlled loops and diffing each snapshot against cached
// state. Events fire only when state actually transitions: go-live,
// go-offline, title change, game change, new follower, follower count
// change.
//
// # Quick Start
//
// Wire a [helix.Client] and an event sink, then enable listeners:
//
//	client := helix.NewClient(clientID, helix.NewAppTokenSource(clientID, secret))
//	dispatcher := events.NewDispatcher()
//
//	helper, _ := twitch4j.New(client, dispatcher)
//	defer helper.Close()
//
//	helper.EnableStreamEventListener(ctx, "somechannel")
//	helper.EnableFollowEventListener(ctx, "somechannel")
//
//	for ev := range dispatcher.Subscribe() {
//	    switch e := ev.(type) {
//	    case events.ChannelGoLiveEvent:
//	        log.Printf("%s went live: %s", e.Channel.Name, e.Title)
//	    }
//	}
//
// # Configuration
//
// The helper uses the functional options pattern:
//
//	helper, err := twitch4j.New(client, dispatcher,
//	    twitch4j.WithCallDelay(2 * time.Second),
//	    twitch4j.WithJitter(true),
//	    twitch4j.WithLogger(logger),
//	)
//
// The per-loop call rate can be changed at runtime with
// [ClientHelper.SetCallRate] or [ClientHelper.SetCallDelay] without
// disturbing an in-progress backoff.
//
// # Delivery semantics
//
// Events are fire-and-forget with no ordering or exactly-once
// guarantee. Follower detection is at-least-once and bounded by the
// API page size: if more follows happen within one polling interval
// than fit in a single page, the excess is never reported. All state is
// in memory and rebuilt from scratch on restart.
//
// # Architecture
//
// The library consists of several internal packages (under internal/):
//
//   - internal/watch: concurrency-safe watch sets, one per listener kind
//   - internal/loop: per-listener polling workers with backoff scheduling
//   - internal/diff: snapshot-vs-cache diffing and event emission
//   - internal/cache: bounded per-channel state cache
//   - internal/backoff: exponential backoff with reset-on-success
//
// The internal packages are not part of the public API and may change
// without notice.
package twitch4j

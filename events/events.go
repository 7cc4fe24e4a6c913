// Package events defines the domain events emitted by the channel
// watcher and the sink they are delivered to.
//
// Events are edge-triggered: they fire only when cached state actually
// transitions, never on steady-state polling. Delivery is fire-and-forget
// with no ordering or exactly-once guarantee.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is a discrete domain event.
type Event interface {
	// EventID is a unique id for this occurrence.
	EventID() string

	// FiredAt is when the event was created.
	FiredAt() time.Time
}

// Publisher is the outbound event sink. Publish must not block;
// implementations that can fall behind should drop rather than stall
// the polling loops.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to the [Publisher] interface.
type PublisherFunc func(Event)

// Publish implements [Publisher].
func (f PublisherFunc) Publish(e Event) { f(e) }

// Metadata carries the fields common to every event. Embed it and
// initialise with [NewMetadata].
type Metadata struct {
	// ID is a unique id for this occurrence.
	ID string

	// Time is when the event was created.
	Time time.Time
}

// NewMetadata creates event metadata with a fresh id and the current time.
func NewMetadata() Metadata {
	return Metadata{ID: uuid.NewString(), Time: time.Now()}
}

// EventID implements [Event].
func (m Metadata) EventID() string { return m.ID }

// FiredAt implements [Event].
func (m Metadata) FiredAt() time.Time { return m.Time }

// Channel identifies the channel an event concerns. Name may be empty if
// no API response has carried the display name yet.
type Channel struct {
	ID   string
	Name string
}

// User identifies a user referenced by an event.
type User struct {
	ID   string
	Name string
}

// ChannelGoLiveEvent fires when a watched channel transitions from
// not-live to live.
type ChannelGoLiveEvent struct {
	Metadata
	Channel Channel

	// Title is the broadcast title at go-live time.
	Title string

	// GameID identifies the content being played at go-live time.
	GameID string
}

// ChannelGoOfflineEvent fires when a watched channel transitions from
// live to not-live.
type ChannelGoOfflineEvent struct {
	Metadata
	Channel Channel
}

// ChannelChangeTitleEvent fires when an already-live channel changes its
// broadcast title. It never fires in the same cycle the channel went live.
type ChannelChangeTitleEvent struct {
	Metadata
	Channel  Channel
	OldTitle string
	NewTitle string
}

// ChannelChangeGameEvent fires when an already-live channel switches
// content. It never fires in the same cycle the channel went live.
type ChannelChangeGameEvent struct {
	Metadata
	Channel   Channel
	OldGameID string
	NewGameID string
}

// ChannelFollowCountUpdateEvent fires when a channel's total follower
// count differs from the previously recorded total. It never fires on
// the first observation.
type ChannelFollowCountUpdateEvent struct {
	Metadata
	Channel  Channel
	OldTotal int
	NewTotal int
}

// FollowEvent fires once per newly observed follower. Detection is
// at-least-once; if more follows occur within one polling interval than
// fit in a single page, the excess is missed.
type FollowEvent struct {
	Metadata
	Channel Channel
	User    User

	// FollowedAt is the timestamp on the follow record.
	FollowedAt time.Time
}

package helix

import "time"

// MaxPageSize is the greatest number of streams, followers, or users
// that the API returns for a single request. Callers batching larger
// inputs must chunk them to this size.
const MaxPageSize = 100

// Stream describes one live broadcast as returned by the streams endpoint.
// Channels that are not broadcasting are simply absent from the response.
type Stream struct {
	// ID is the unique id of this broadcast session.
	ID string `json:"id"`

	// UserID is the broadcasting channel's id.
	UserID string `json:"user_id"`

	// UserLogin is the channel's login name (lowercase).
	UserLogin string `json:"user_login"`

	// UserName is the channel's display name.
	UserName string `json:"user_name"`

	// GameID identifies the content currently being played.
	GameID string `json:"game_id"`

	// GameName is the display name of the content.
	GameName string `json:"game_name"`

	// Type is "live" for an ongoing broadcast. Other values (e.g. a
	// rerun marker) do not count as live.
	Type string `json:"type"`

	// Title is the broadcast title.
	Title string `json:"title"`

	// ViewerCount is the current number of viewers.
	ViewerCount int `json:"viewer_count"`

	// StartedAt is when the broadcast began.
	StartedAt time.Time `json:"started_at"`
}

// IsLive reports whether this entry describes an ongoing live broadcast.
func (s Stream) IsLive() bool {
	return s.Type == "live"
}

// User describes an account as returned by the users endpoint.
type User struct {
	// ID is the stable account id.
	ID string `json:"id"`

	// Login is the account's login name (lowercase).
	Login string `json:"login"`

	// DisplayName is the account's display name.
	DisplayName string `json:"display_name"`
}

// Follow is one follower relationship record.
type Follow struct {
	// FromID is the id of the following user.
	FromID string `json:"from_id"`

	// FromName is the display name of the following user.
	FromName string `json:"from_name"`

	// ToID is the id of the followed channel.
	ToID string `json:"to_id"`

	// ToName is the display name of the followed channel.
	ToName string `json:"to_name"`

	// FollowedAt is when the follow happened.
	FollowedAt time.Time `json:"followed_at"`
}

// FollowPage is one page of follower records plus the channel's total
// follower count. At most [MaxPageSize] records are returned per page,
// newest first; follows beyond the page are not reported.
type FollowPage struct {
	// Total is the channel's total follower count.
	Total int `json:"total"`

	// Follows are the most recent follower records.
	Follows []Follow `json:"data"`
}

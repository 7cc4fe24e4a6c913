package twitch4j

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gazconroy/twitch4j/events"
	"github.com/gazconroy/twitch4j/helix"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAPI is a scriptable APISource. Live channels and users are set by
// tests; every method records how often it was called.
type fakeAPI struct {
	mu          sync.Mutex
	users       map[string]helix.User   // keyed by login
	streams     map[string]helix.Stream // keyed by channel id
	follows     map[string]*helix.FollowPage
	streamCalls int
	followCalls int
	userCalls   int
	err         error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		users:   make(map[string]helix.User),
		streams: make(map[string]helix.Stream),
		follows: make(map[string]*helix.FollowPage),
	}
}

func (f *fakeAPI) StreamsByID(_ context.Context, ids []string) ([]helix.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []helix.Stream
	for _, id := range ids {
		if s, ok := f.streams[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeAPI) FollowersByID(_ context.Context, id string, _ int) (*helix.FollowPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followCalls++
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.follows[id]; ok {
		return p, nil
	}
	return &helix.FollowPage{}, nil
}

func (f *fakeAPI) UsersByLogin(_ context.Context, logins []string) ([]helix.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []helix.User
	for _, l := range logins {
		// logins are matched case-insensitively, as the real API does
		if u, ok := f.users[strings.ToLower(l)]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeAPI) setLive(id, name, title, gameID string) {
	f.mu.Lock()
	f.streams[id] = helix.Stream{UserID: id, UserName: name, Type: "live", Title: title, GameID: gameID}
	f.mu.Unlock()
}

func (f *fakeAPI) setOffline(id string) {
	f.mu.Lock()
	delete(f.streams, id)
	f.mu.Unlock()
}

// collectingSink records all published events.
type collectingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *collectingSink) Publish(e events.Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *collectingSink) count(match func(events.Event) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if match(e) {
			n++
		}
	}
	return n
}

func isGoLive(e events.Event) bool {
	_, ok := e.(events.ChannelGoLiveEvent)
	return ok
}

func isTitleChange(e events.Event) bool {
	_, ok := e.(events.ChannelChangeTitleEvent)
	return ok
}

func newTestHelper(t *testing.T, api APISource) (*ClientHelper, *collectingSink) {
	t.Helper()
	sink := &collectingSink{}
	h, err := New(api, sink,
		WithCallDelay(5*time.Millisecond),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(h.Close)
	return h, sink
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached before timeout")
}

func TestNew_Validation(t *testing.T) {
	sink := &collectingSink{}

	if _, err := New(nil, sink); err == nil {
		t.Error("New(nil source) error = nil, want error")
	}
	if _, err := New(newFakeAPI(), nil); err == nil {
		t.Error("New(nil publisher) error = nil, want error")
	}
	if _, err := New(newFakeAPI(), sink, WithCallDelay(0)); err == nil {
		t.Error("New(WithCallDelay(0)) error = nil, want error")
	}
	if _, err := New(newFakeAPI(), sink, WithLogger(nil)); err == nil {
		t.Error("New(WithLogger(nil)) error = nil, want error")
	}
}

func TestEnableStreamEventListenerForID_Idempotent(t *testing.T) {
	h, _ := newTestHelper(t, newFakeAPI())

	if !h.EnableStreamEventListenerForID("1", "alice") {
		t.Error("first enable = false, want true")
	}
	if h.EnableStreamEventListenerForID("1", "alice") {
		t.Error("second enable = true, want false")
	}
	if got := h.StreamListenerCount(); got != 1 {
		t.Errorf("StreamListenerCount() = %d, want 1", got)
	}
}

func TestDisableStreamEventListenerForID(t *testing.T) {
	h, _ := newTestHelper(t, newFakeAPI())
	h.EnableStreamEventListenerForID("1", "alice")

	if !h.DisableStreamEventListenerForID("1") {
		t.Error("disable of watched channel = false, want true")
	}
	if h.DisableStreamEventListenerForID("1") {
		t.Error("disable of unwatched channel = true, want false")
	}
	if got := h.StreamListenerCount(); got != 0 {
		t.Errorf("StreamListenerCount() = %d, want 0", got)
	}
}

func TestEnableStreamEventListener_ByName(t *testing.T) {
	api := newFakeAPI()
	api.users["alice"] = helix.User{ID: "1", Login: "alice", DisplayName: "Alice"}
	h, _ := newTestHelper(t, api)

	if err := h.EnableStreamEventListener(context.Background(), "Alice"); err != nil {
		t.Fatalf("EnableStreamEventListener() error = %v", err)
	}
	if got := h.StreamListenerCount(); got != 1 {
		t.Errorf("StreamListenerCount() = %d, want 1", got)
	}
}

// TestEnableStreamEventListener_ResolutionFailure verifies the
// all-or-nothing rule: one unresolvable name aborts the call with no
// state change.
func TestEnableStreamEventListener_ResolutionFailure(t *testing.T) {
	api := newFakeAPI()
	api.users["alice"] = helix.User{ID: "1", Login: "alice", DisplayName: "Alice"}
	h, _ := newTestHelper(t, api)

	err := h.EnableStreamEventListener(context.Background(), "alice", "nosuchuser")
	if err == nil {
		t.Fatal("EnableStreamEventListener() error = nil, want error")
	}
	if got := h.StreamListenerCount(); got != 0 {
		t.Errorf("StreamListenerCount() after failed resolution = %d, want 0", got)
	}
}

func TestEnableStreamEventListener_LookupError(t *testing.T) {
	api := newFakeAPI()
	api.err = errors.New("api unavailable")
	h, _ := newTestHelper(t, api)

	if err := h.EnableStreamEventListener(context.Background(), "alice"); err == nil {
		t.Error("EnableStreamEventListener() error = nil, want error")
	}
}

func TestLoop_StartsAndStopsWithWatchSet(t *testing.T) {
	api := newFakeAPI()
	h, _ := newTestHelper(t, api)

	h.EnableStreamEventListenerForID("1", "alice")
	waitFor(t, time.Second, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.streamCalls >= 2
	})

	h.DisableStreamEventListenerForID("1")
	time.Sleep(30 * time.Millisecond)
	api.mu.Lock()
	settled := api.streamCalls
	api.mu.Unlock()

	time.Sleep(60 * time.Millisecond)
	api.mu.Lock()
	after := api.streamCalls
	api.mu.Unlock()
	if after > settled+1 {
		t.Errorf("polling continued after disable: %d extra calls", after-settled)
	}
}

func TestGoLiveEventEndToEnd(t *testing.T) {
	api := newFakeAPI()
	h, sink := newTestHelper(t, api)

	h.EnableStreamEventListenerForID("1", "alice")

	// first snapshot observes offline, then the channel goes live
	waitFor(t, time.Second, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.streamCalls >= 1
	})
	api.setLive("1", "alice", "First Stream", "g1")

	waitFor(t, time.Second, func() bool {
		return sink.count(isGoLive) == 1
	})
}

// TestDisableClearsCachedTitle covers the re-enable scenario: disabling
// drops cached state, so a different title on the next go-live is a
// first observation and fires no title change.
func TestDisableClearsCachedTitle(t *testing.T) {
	api := newFakeAPI()
	h, sink := newTestHelper(t, api)

	api.setLive("1", "alice", "T1", "g")
	h.EnableStreamEventListenerForID("1", "alice")
	waitFor(t, time.Second, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.streamCalls >= 2
	})

	h.DisableStreamEventListenerForID("1")
	api.setLive("1", "alice", "T2", "g")
	h.EnableStreamEventListenerForID("1", "alice")

	waitFor(t, time.Second, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.streamCalls >= 5
	})

	if got := sink.count(isTitleChange); got != 0 {
		t.Errorf("title change events after disable/re-enable = %d, want 0", got)
	}
}

func TestFollowListenerBootstrapAndFetch(t *testing.T) {
	api := newFakeAPI()
	h, _ := newTestHelper(t, api)

	h.EnableFollowEventListenerForID("1", "alice")

	// first tick bootstraps without a call, second tick fetches
	waitFor(t, time.Second, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.followCalls >= 1
	})
}

func TestSetCallRate(t *testing.T) {
	h, _ := newTestHelper(t, newFakeAPI())

	if err := h.SetCallRate(0); err == nil {
		t.Error("SetCallRate(0) error = nil, want error")
	}
	if err := h.SetCallRate(10); err != nil {
		t.Errorf("SetCallRate(10) error = %v", err)
	}
	if err := h.SetCallDelay(-time.Second); err == nil {
		t.Error("SetCallDelay(-1s) error = nil, want error")
	}
}

func TestClose_Idempotent(t *testing.T) {
	h, _ := newTestHelper(t, newFakeAPI())
	h.EnableStreamEventListenerForID("1", "alice")
	h.EnableFollowEventListenerForID("1", "alice")

	h.Close()
	h.Close()

	if got := h.StreamListenerCount(); got != 0 {
		t.Errorf("StreamListenerCount() after Close = %d, want 0", got)
	}
	if got := h.FollowListenerCount(); got != 0 {
		t.Errorf("FollowListenerCount() after Close = %d, want 0", got)
	}
}

// TestConcurrentEnableDisable exercises the loop re-evaluation path from
// many goroutines. Run with -race.
func TestConcurrentEnableDisable(t *testing.T) {
	h, _ := newTestHelper(t, newFakeAPI())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if j%2 == 0 {
					h.EnableStreamEventListenerForID("1", "alice")
					h.EnableFollowEventListenerForID("1", "alice")
				} else {
					h.DisableStreamEventListenerForID("1")
					h.DisableFollowEventListenerForID("1")
				}
			}
		}(i)
	}
	wg.Wait()

	h.DisableStreamEventListenerForID("1")
	h.DisableFollowEventListenerForID("1")
	if h.StreamListenerCount() != 0 || h.FollowListenerCount() != 0 {
		t.Error("watch sets not empty after final disable")
	}
}

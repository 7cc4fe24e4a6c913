package helix

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient("test-client-id", StaticToken("test-token"),
		WithBaseURL(srv.URL),
	)
	t.Cleanup(client.Close)
	return srv, client
}

func manyIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = "id"
	}
	return ids
}

func TestStreamsByID(t *testing.T) {
	var gotReq *http.Request
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [
			{"id": "s1", "user_id": "1", "user_name": "Alice", "type": "live", "title": "hi", "game_id": "g1"}
		]}`))
	})

	streams, err := client.StreamsByID(context.Background(), []string{"1", "2"})
	if err != nil {
		t.Fatalf("StreamsByID() error = %v", err)
	}

	if len(streams) != 1 {
		t.Fatalf("len(streams) = %d, want 1", len(streams))
	}
	if streams[0].UserID != "1" || !streams[0].IsLive() {
		t.Errorf("streams[0] = %+v, want live stream for user 1", streams[0])
	}

	if gotReq.URL.Path != "/streams" {
		t.Errorf("request path = %q, want /streams", gotReq.URL.Path)
	}
	if got := gotReq.URL.Query()["user_id"]; len(got) != 2 {
		t.Errorf("user_id params = %v, want 2 entries", got)
	}
	if got := gotReq.Header.Get("Authorization"); got != "Bearer test-token" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer test-token")
	}
	if got := gotReq.Header.Get("Client-Id"); got != "test-client-id" {
		t.Errorf("Client-Id = %q, want %q", got, "test-client-id")
	}
}

func TestStreamsByID_EmptyInput(t *testing.T) {
	called := false
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	streams, err := client.StreamsByID(context.Background(), nil)
	if err != nil {
		t.Fatalf("StreamsByID(nil) error = %v", err)
	}
	if streams != nil {
		t.Errorf("StreamsByID(nil) = %v, want nil", streams)
	}
	if called {
		t.Error("StreamsByID(nil) made an HTTP request")
	}
}

func TestStreamsByID_TooManyIDs(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.StreamsByID(context.Background(), manyIDs(MaxPageSize+1))
	if err == nil {
		t.Fatal("StreamsByID() error = nil, want page size error")
	}
	if !strings.Contains(err.Error(), "page size") {
		t.Errorf("error = %q, want page size mention", err)
	}
}

func TestFollowersByID(t *testing.T) {
	var gotReq *http.Request
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total": 42, "data": [
			{"from_id": "9", "from_name": "fan", "to_id": "1", "to_name": "Alice", "followed_at": "2024-05-01T12:00:00Z"}
		]}`))
	})

	page, err := client.FollowersByID(context.Background(), "1", 50)
	if err != nil {
		t.Fatalf("FollowersByID() error = %v", err)
	}

	if page.Total != 42 {
		t.Errorf("Total = %d, want 42", page.Total)
	}
	if len(page.Follows) != 1 || page.Follows[0].FromName != "fan" {
		t.Errorf("Follows = %+v, want one record from fan", page.Follows)
	}
	if got := page.Follows[0].FollowedAt; got.IsZero() {
		t.Error("FollowedAt is zero, want parsed timestamp")
	}

	q := gotReq.URL.Query()
	if q.Get("to_id") != "1" {
		t.Errorf("to_id = %q, want 1", q.Get("to_id"))
	}
	if q.Get("first") != "50" {
		t.Errorf("first = %q, want 50", q.Get("first"))
	}
}

func TestFollowersByID_LimitCapped(t *testing.T) {
	var gotFirst string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotFirst = r.URL.Query().Get("first")
		_, _ = w.Write([]byte(`{"total": 0, "data": []}`))
	})

	if _, err := client.FollowersByID(context.Background(), "1", 500); err != nil {
		t.Fatalf("FollowersByID() error = %v", err)
	}
	if gotFirst != "100" {
		t.Errorf("first = %q, want capped to 100", gotFirst)
	}
}

func TestUsersByLogin(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [
			{"id": "1", "login": "alice", "display_name": "Alice"}
		]}`))
	})

	users, err := client.UsersByLogin(context.Background(), []string{"alice", "ghost"})
	if err != nil {
		t.Fatalf("UsersByLogin() error = %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("len(users) = %d, want 1 (unknown logins absent)", len(users))
	}
	if users[0].ID != "1" || users[0].Login != "alice" {
		t.Errorf("users[0] = %+v, want alice", users[0])
	}
}

func TestClient_APIError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
	})

	_, err := client.StreamsByID(context.Background(), []string{"1"})
	if err == nil {
		t.Fatal("StreamsByID() error = nil, want api error")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error = %q, want status code in message", err)
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	if _, err := client.StreamsByID(context.Background(), []string{"1"}); err == nil {
		t.Fatal("StreamsByID() error = nil, want decode error")
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.StreamsByID(ctx, []string{"1"}); err == nil {
		t.Fatal("StreamsByID() error = nil, want context error")
	}
}

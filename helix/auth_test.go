package helix

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestStaticToken(t *testing.T) {
	token, err := StaticToken("abc").Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "abc" {
		t.Errorf("Token() = %q, want %q", token, "abc")
	}
}

func TestAppTokenSource_FetchesAndCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", got)
		}
		if got := r.Form.Get("client_id"); got != "cid" {
			t.Errorf("client_id = %q, want cid", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "fresh-token", "expires_in": 3600}`))
	}))
	defer srv.Close()

	source := NewAppTokenSource("cid", "secret", WithTokenURL(srv.URL))

	for i := 0; i < 3; i++ {
		token, err := source.Token(context.Background())
		if err != nil {
			t.Fatalf("Token() #%d error = %v", i, err)
		}
		if token != "fresh-token" {
			t.Errorf("Token() #%d = %q, want %q", i, token, "fresh-token")
		}
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("token endpoint calls = %d, want 1 (cached)", got)
	}
}

func TestAppTokenSource_RefreshesNearExpiry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// expires_in below the refresh margin forces a refresh next call
		_, _ = w.Write([]byte(`{"access_token": "short-lived", "expires_in": 30}`))
	}))
	defer srv.Close()

	source := NewAppTokenSource("cid", "secret", WithTokenURL(srv.URL))

	for i := 0; i < 2; i++ {
		if _, err := source.Token(context.Background()); err != nil {
			t.Fatalf("Token() #%d error = %v", i, err)
		}
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("token endpoint calls = %d, want 2 (refreshed)", got)
	}
}

func TestAppTokenSource_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "invalid client secret"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	source := NewAppTokenSource("cid", "wrong", WithTokenURL(srv.URL))

	if _, err := source.Token(context.Background()); err == nil {
		t.Fatal("Token() error = nil, want authentication error")
	}
}

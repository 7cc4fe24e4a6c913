package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// mockChannel tracks the simulated state for a single channel.
type mockChannel struct {
	id          string
	login       string
	displayName string

	live       bool
	titleIdx   int
	gameIdx    int
	total      int
	follows    []mockFollow
	nextFlip   time.Time
	nextTweak  time.Time
	nextFollow time.Time
}

type mockFollow struct {
	name string
	at   time.Time
}

var (
	mockTitles = []string{
		"chill games and chat",
		"ranked grind continues",
		"community night!",
		"speedrun attempts",
	}
	mockGameIDs = []string{"509658", "21779", "32982"}
)

// StartMockHelixServer runs a fake Helix API that simulates channels going
// live and offline, retitling mid-stream, and gaining followers.
// Call this in a goroutine before creating the watcher.
func StartMockHelixServer(addr string) {
	var (
		mu       sync.Mutex
		channels = map[string]*mockChannel{
			"1": {id: "1", login: "sodapoppin", displayName: "sodapoppin", total: 100},
			"2": {id: "2", login: "lirik", displayName: "LIRIK", total: 250},
		}
	)

	// advance mutates a channel's state when its scheduled times pass.
	advance := func(ch *mockChannel) {
		now := time.Now()

		if ch.nextFlip.IsZero() {
			ch.nextFlip = now.Add(time.Duration(10+rand.Intn(11)) * time.Second)
			ch.nextTweak = now.Add(time.Duration(15+rand.Intn(16)) * time.Second)
			ch.nextFollow = now.Add(time.Duration(3+rand.Intn(5)) * time.Second)
			return
		}

		if now.After(ch.nextFlip) {
			ch.live = !ch.live
			ch.nextFlip = now.Add(time.Duration(10+rand.Intn(11)) * time.Second)
			slog.Info("mock flip", "channel", ch.login, "live", ch.live)
		}
		if ch.live && now.After(ch.nextTweak) {
			if rand.Intn(2) == 0 {
				ch.titleIdx = (ch.titleIdx + 1) % len(mockTitles)
			} else {
				ch.gameIdx = (ch.gameIdx + 1) % len(mockGameIDs)
			}
			ch.nextTweak = now.Add(time.Duration(15+rand.Intn(16)) * time.Second)
		}
		if now.After(ch.nextFollow) {
			ch.total++
			ch.follows = append([]mockFollow{{
				name: "follower_" + strconv.Itoa(ch.total),
				at:   now,
			}}, ch.follows...)
			if len(ch.follows) > 100 {
				ch.follows = ch.follows[:100]
			}
			ch.nextFollow = now.Add(time.Duration(3+rand.Intn(5)) * time.Second)
		}
	}

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/streams", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		var data []map[string]any
		for _, id := range r.URL.Query()["user_id"] {
			ch, ok := channels[id]
			if !ok {
				continue
			}
			advance(ch)
			if !ch.live {
				continue
			}
			data = append(data, map[string]any{
				"id":        "s" + ch.id,
				"user_id":   ch.id,
				"user_name": ch.displayName,
				"game_id":   mockGameIDs[ch.gameIdx],
				"type":      "live",
				"title":     mockTitles[ch.titleIdx],
			})
		}
		mu.Unlock()
		writeJSON(w, map[string]any{"data": data})
	})

	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		var data []map[string]any
		for _, login := range r.URL.Query()["login"] {
			for _, ch := range channels {
				if ch.login == login {
					data = append(data, map[string]any{
						"id":           ch.id,
						"login":        ch.login,
						"display_name": ch.displayName,
					})
				}
			}
		}
		mu.Unlock()
		writeJSON(w, map[string]any{"data": data})
	})

	mux.HandleFunc("/users/follows", func(w http.ResponseWriter, r *http.Request) {
		first, _ := strconv.Atoi(r.URL.Query().Get("first"))
		if first <= 0 || first > 100 {
			first = 100
		}

		mu.Lock()
		ch, ok := channels[r.URL.Query().Get("to_id")]
		var (
			total int
			data  []map[string]any
		)
		if ok {
			advance(ch)
			total = ch.total
			for i, f := range ch.follows {
				if i >= first {
					break
				}
				data = append(data, map[string]any{
					"from_id":     "f" + strconv.Itoa(total-i),
					"from_name":   f.name,
					"to_id":       ch.id,
					"to_name":     ch.displayName,
					"followed_at": f.at.UTC().Format(time.RFC3339),
				})
			}
		}
		mu.Unlock()
		writeJSON(w, map[string]any{"total": total, "data": data})
	})

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"access_token": "mock-app-token",
			"expires_in":   3600,
			"token_type":   "bearer",
		})
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}

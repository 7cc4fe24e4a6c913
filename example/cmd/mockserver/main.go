// Standalone mock Helix server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/twitchwatch watch -c example/config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

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
	nextFollow time.Time
}

type mockFollow struct {
	name string
	at   time.Time
}

var (
	titles  = []string{"chill games and chat", "ranked grind continues", "community night!"}
	gameIDs = []string{"509658", "21779", "32982"}
)

func main() {
	fmt.Println("Mock Helix server starting on :9999")
	fmt.Println("Channels flip live/offline and gain followers over time")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		mu       sync.Mutex
		channels = map[string]*mockChannel{
			"1": {id: "1", login: "sodapoppin", displayName: "sodapoppin", total: 100},
			"2": {id: "2", login: "lirik", displayName: "LIRIK", total: 250},
		}
	)

	advance := func(ch *mockChannel) {
		now := time.Now()
		if ch.nextFlip.IsZero() {
			ch.nextFlip = now.Add(time.Duration(10+rand.Intn(11)) * time.Second)
			ch.nextFollow = now.Add(time.Duration(3+rand.Intn(5)) * time.Second)
			return
		}
		if now.After(ch.nextFlip) {
			ch.live = !ch.live
			if ch.live {
				ch.titleIdx = rand.Intn(len(titles))
				ch.gameIdx = rand.Intn(len(gameIDs))
			}
			ch.nextFlip = now.Add(time.Duration(10+rand.Intn(11)) * time.Second)
			slog.Info("flip", "channel", ch.login, "live", ch.live)
		}
		if now.After(ch.nextFollow) {
			ch.total++
			ch.follows = append([]mockFollow{{name: "follower_" + strconv.Itoa(ch.total), at: now}}, ch.follows...)
			if len(ch.follows) > 100 {
				ch.follows = ch.follows[:100]
			}
			ch.nextFollow = now.Add(time.Duration(3+rand.Intn(5)) * time.Second)
		}
	}

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
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
				"game_id":   gameIDs[ch.gameIdx],
				"type":      "live",
				"title":     titles[ch.titleIdx],
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

	if err := http.ListenAndServe(":9999", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

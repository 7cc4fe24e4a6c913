package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gazconroy/twitch4j"
	"github.com/gazconroy/twitch4j/events"
	"github.com/gazconroy/twitch4j/helix"
)

func main() {
	// start mock Helix server (see mock_server.go)
	go StartMockHelixServer(":9999")
	time.Sleep(100 * time.Millisecond)

	client := helix.NewClient("mock-client-id", helix.StaticToken("mock-token"),
		helix.WithBaseURL("http://localhost:9999"),
	)
	defer client.Close()

	dispatcher := events.NewDispatcher()
	defer dispatcher.Close()

	helper, err := twitch4j.New(client, dispatcher,
		twitch4j.WithCallDelay(2*time.Second),
		twitch4j.WithJitter(true),
	)
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}
	defer helper.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// resolve logins against the mock server and start both listener kinds
	if err := helper.EnableStreamEventListener(ctx, "sodapoppin", "lirik"); err != nil {
		slog.Error("failed to enable stream listeners", "error", err)
		os.Exit(1)
	}
	if err := helper.EnableFollowEventListener(ctx, "sodapoppin"); err != nil {
		slog.Error("failed to enable follow listeners", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Channel Watcher Demo                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Watching 2 mock channels against a fake Helix API.  ║")
	fmt.Println("  ║   Channels flip live/offline every 10-20 seconds and  ║")
	fmt.Println("  ║   gain followers every few seconds.                   ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	sub := dispatcher.Subscribe()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("bye")
			return
		case ev := <-sub:
			printEvent(ev)
		}
	}
}

func printEvent(ev events.Event) {
	ts := ev.FiredAt().Format("15:04:05")
	switch e := ev.(type) {
	case events.ChannelGoLiveEvent:
		fmt.Printf("[%s] %s went LIVE: %q (game %s)\n", ts, e.Channel.Name, e.Title, e.GameID)
	case events.ChannelGoOfflineEvent:
		fmt.Printf("[%s] %s went offline\n", ts, e.Channel.Name)
	case events.ChannelChangeTitleEvent:
		fmt.Printf("[%s] %s changed title: %q -> %q\n", ts, e.Channel.Name, e.OldTitle, e.NewTitle)
	case events.ChannelChangeGameEvent:
		fmt.Printf("[%s] %s changed game: %s -> %s\n", ts, e.Channel.Name, e.OldGameID, e.NewGameID)
	case events.FollowEvent:
		fmt.Printf("[%s] %s has a new follower: %s\n", ts, e.Channel.Name, e.User.Name)
	case events.ChannelFollowCountUpdateEvent:
		fmt.Printf("[%s] %s follower count: %d -> %d\n", ts, e.Channel.Name, e.OldTotal, e.NewTotal)
	}
}

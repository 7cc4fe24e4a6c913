package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gazconroy/twitch4j"
	"github.com/gazconroy/twitch4j/config"
	"github.com/gazconroy/twitch4j/events"
	"github.com/spf13/cobra"
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// watchCmd starts watching the configured channels.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start watching channels",
	Long: `Start watching the configured channels.

The watcher will:
  - Load configuration from the specified YAML file
  - Resolve channel logins to account ids
  - Poll the Helix API and log each detected event

The watcher runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  twitchwatch watch -c config.yaml
  twitchwatch watch --config /etc/twitchwatch/config.yaml`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = watchCmd.MarkFlagRequired("config")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"channels", len(cfg.Channels),
		"call_delay", cfg.CallDelay.Duration().String(),
	)

	client := config.BuildClient(cfg)
	defer client.Close()

	dispatcher := events.NewDispatcher()
	defer dispatcher.Close()

	helper, err := twitch4j.New(client, dispatcher, config.BuildOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer helper.Close()

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if names := cfg.StreamChannels(); len(names) > 0 {
		if err := helper.EnableStreamEventListener(ctx, names...); err != nil {
			return fmt.Errorf("failed to enable stream listeners: %w", err)
		}
	}
	if names := cfg.FollowChannels(); len(names) > 0 {
		if err := helper.EnableFollowEventListener(ctx, names...); err != nil {
			return fmt.Errorf("failed to enable follow listeners: %w", err)
		}
	}

	logger.Info("watching",
		"stream_channels", helper.StreamListenerCount(),
		"follow_channels", helper.FollowListenerCount(),
	)

	sub := dispatcher.Subscribe()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case ev := <-sub:
			logEvent(logger, ev)
		}
	}
}

// logEvent writes a structured log line per event kind.
func logEvent(logger *slog.Logger, ev events.Event) {
	switch e := ev.(type) {
	case events.ChannelGoLiveEvent:
		logger.Info("channel went live",
			"channel", e.Channel.Name,
			"title", e.Title,
			"game_id", e.GameID,
		)
	case events.ChannelGoOfflineEvent:
		logger.Info("channel went offline",
			"channel", e.Channel.Name,
		)
	case events.ChannelChangeTitleEvent:
		logger.Info("title changed",
			"channel", e.Channel.Name,
			"old_title", e.OldTitle,
			"new_title", e.NewTitle,
		)
	case events.ChannelChangeGameEvent:
		logger.Info("game changed",
			"channel", e.Channel.Name,
			"old_game_id", e.OldGameID,
			"new_game_id", e.NewGameID,
		)
	case events.FollowEvent:
		logger.Info("new follower",
			"channel", e.Channel.Name,
			"follower", e.User.Name,
			"followed_at", e.FollowedAt,
		)
	case events.ChannelFollowCountUpdateEvent:
		logger.Info("follower count changed",
			"channel", e.Channel.Name,
			"old_total", e.OldTotal,
			"new_total", e.NewTotal,
		)
	default:
		logger.Info("event",
			"event_id", ev.EventID(),
			"fired_at", ev.FiredAt(),
		)
	}
}

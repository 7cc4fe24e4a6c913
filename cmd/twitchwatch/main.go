// Package main is the entry point for the twitchwatch CLI.
//
// The watcher can be used either as a library (SDK) or as a standalone
// binary with YAML configuration. This CLI provides the standalone
// binary approach.
//
// Usage:
//
//	twitchwatch watch -c config.yaml    # Start watching
//	twitchwatch validate -c config.yaml # Validate configuration
//	twitchwatch version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "twitchwatch",
	Short: "Watch Twitch channels for stream and follower events",
	Long: `twitchwatch polls the Twitch Helix API and turns snapshots into events:
go-live, go-offline, title changes, game changes, new followers.

Quick start:
  1. Create a config file (twitchwatch.yaml)
  2. Run: twitchwatch watch -c twitchwatch.yaml

Example config:
  credentials:
    client_id: ${TWITCH_CLIENT_ID}
    client_secret: ${TWITCH_CLIENT_SECRET}
  call_delay: 10s
  channels:
    - login: sodapoppin
    - login: lirik
      follow_events: true`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this twitchwatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("twitchwatch %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}

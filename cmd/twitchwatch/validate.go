package main

import (
	"fmt"

	"github.com/gazconroy/twitch4j/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without contacting the API.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a twitchwatch configuration file without starting the watcher.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  twitchwatch validate -c config.yaml
  twitchwatch validate --config /etc/twitchwatch/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Call delay:      %s\n", cfg.CallDelay.Duration())
	fmt.Printf("  Stream channels: %d\n", len(cfg.StreamChannels()))
	fmt.Printf("  Follow channels: %d\n", len(cfg.FollowChannels()))

	return nil
}

// Package config provides YAML configuration parsing for the channel
// watcher binary.
//
// This package enables running the watcher as a standalone binary with
// a configuration file, as an alternative to the programmatic SDK
// approach.
//
// Example configuration:
//
//	credentials:
//	  client_id: ${TWITCH_CLIENT_ID}
//	  client_secret: ${TWITCH_CLIENT_SECRET}
//
//	call_delay: 10s
//
//	channels:
//	  - login: sodapoppin
//	  - login: lirik
//	    follow_events: true
//	    stream_events: false
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// minCallDelay is the minimum allowed delay between API calls.
// Polling faster than this burns through Helix rate-limit points with
// no benefit.
const minCallDelay = 100 * time.Millisecond

// Config is the root configuration structure for the watcher.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Credentials holds the Twitch API credentials.
	Credentials Credentials `yaml:"credentials"`

	// APIURL overrides the Helix API base URL. Used for testing
	// against a mock server.
	APIURL string `yaml:"api_url"`

	// CallDelay is the base delay between consecutive API calls.
	// Accepts duration strings like "10s", "1m", "500ms".
	// Defaults to 1s.
	CallDelay Duration `yaml:"call_delay"`

	// Jitter randomizes each delay to avoid synchronized bursts.
	// Defaults to false.
	Jitter bool `yaml:"jitter"`

	// CacheTTL is how long idle channel state is retained.
	// Defaults to the SDK default (10m) when unset.
	CacheTTL Duration `yaml:"cache_ttl"`

	// Channels lists the channels to watch.
	Channels []ChannelConfig `yaml:"channels"`
}

// Credentials holds Twitch API credentials.
//
// Either an access token or a client id/secret pair must be provided.
// With only id and secret, an app access token is fetched via the
// client-credentials flow.
type Credentials struct {
	// ClientID is the application's client id. Required.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	ClientID string `yaml:"client_id"`

	// ClientSecret is the application's client secret.
	// Values support environment variable substitution.
	ClientSecret string `yaml:"client_secret"`

	// AccessToken is a pre-issued OAuth token. When set, it is used
	// directly and ClientSecret is ignored.
	AccessToken string `yaml:"access_token"`

	// TokenURL overrides the OAuth token endpoint. Used for testing
	// against a mock server.
	TokenURL string `yaml:"token_url"`
}

// ChannelConfig selects a channel and which event kinds to watch on it.
type ChannelConfig struct {
	// Login is the channel's login name. Required.
	Login string `yaml:"login"`

	// StreamEvents enables go-live, go-offline, title and game change
	// events. Defaults to true.
	StreamEvents *bool `yaml:"stream_events"`

	// FollowEvents enables follow and follower count events.
	// Defaults to false.
	FollowEvents *bool `yaml:"follow_events"`
}

// WatchStreams reports whether stream events are enabled for the channel.
func (c ChannelConfig) WatchStreams() bool {
	return c.StreamEvents == nil || *c.StreamEvents
}

// WatchFollows reports whether follow events are enabled for the channel.
func (c ChannelConfig) WatchFollows() bool {
	return c.FollowEvents != nil && *c.FollowEvents
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// loginPattern matches valid Twitch login names.
var loginPattern = regexp.MustCompile(`^[a-zA-Z0-9_]{1,25}$`)

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in credential values.
// CallDelay defaults to 1s when unset.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.CallDelay == 0 {
		cfg.CallDelay = Duration(time.Second)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.CallDelay.Duration() < minCallDelay {
		return fmt.Errorf("call_delay must be at least %s, got %s", minCallDelay, c.CallDelay.Duration())
	}
	if c.CacheTTL != 0 && c.CacheTTL.Duration() < time.Second {
		return fmt.Errorf("cache_ttl must be at least 1s, got %s", c.CacheTTL.Duration())
	}

	for _, field := range []struct {
		name  string
		value *string
	}{
		{"client_id", &c.Credentials.ClientID},
		{"client_secret", &c.Credentials.ClientSecret},
		{"access_token", &c.Credentials.AccessToken},
	} {
		expanded, err := expandEnvVars(*field.value)
		if err != nil {
			return fmt.Errorf("credentials: %s: %w", field.name, err)
		}
		*field.value = expanded
	}

	if c.Credentials.ClientID == "" {
		return errors.New("credentials: client_id is required")
	}
	if c.Credentials.AccessToken == "" && c.Credentials.ClientSecret == "" {
		return errors.New("credentials: either access_token or client_secret is required")
	}
	if c.APIURL != "" {
		parsed, err := url.Parse(c.APIURL)
		if err != nil {
			return fmt.Errorf("invalid api_url: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("api_url scheme must be http or https, got %q", parsed.Scheme)
		}
	}
	if c.Credentials.TokenURL != "" {
		parsed, err := url.Parse(c.Credentials.TokenURL)
		if err != nil {
			return fmt.Errorf("credentials: invalid token_url: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("credentials: token_url scheme must be http or https, got %q", parsed.Scheme)
		}
	}

	if len(c.Channels) == 0 {
		return errors.New("at least one channel must be defined")
	}

	seen := make(map[string]struct{}, len(c.Channels))
	for i, ch := range c.Channels {
		if ch.Login == "" {
			return fmt.Errorf("channels[%d]: login is required", i)
		}
		if !loginPattern.MatchString(ch.Login) {
			return fmt.Errorf("channels[%d]: invalid login %q", i, ch.Login)
		}
		if _, dup := seen[ch.Login]; dup {
			return fmt.Errorf("channels[%d]: duplicate login %q", i, ch.Login)
		}
		seen[ch.Login] = struct{}{}

		if !ch.WatchStreams() && !ch.WatchFollows() {
			return fmt.Errorf("channels[%d] (%s): all event kinds disabled", i, ch.Login)
		}
	}

	return nil
}

// StreamChannels returns the logins with stream events enabled.
func (c *Config) StreamChannels() []string {
	var logins []string
	for _, ch := range c.Channels {
		if ch.WatchStreams() {
			logins = append(logins, ch.Login)
		}
	}
	return logins
}

// FollowChannels returns the logins with follow events enabled.
func (c *Config) FollowChannels() []string {
	var logins []string
	for _, ch := range c.Channels {
		if ch.WatchFollows() {
			logins = append(logins, ch.Login)
		}
	}
	return logins
}

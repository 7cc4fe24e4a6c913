package twitch4j

import (
	"errors"
	"log/slog"
	"time"
)

const defaultBaseDelay = time.Second

// helperConfig holds mutable state during ClientHelper construction.
type helperConfig struct {
	baseDelay  time.Duration
	jitter     bool
	cacheTTL   time.Duration
	maxEntries int
	logger     *slog.Logger
}

// Option configures a [ClientHelper] during construction.
//
// Option implements the functional options pattern. Options return an
// error if validation fails.
//
// Built-in options: [WithCallDelay], [WithJitter], [WithCacheTTL],
// [WithCacheMaxEntries], [WithLogger].
type Option func(*helperConfig) error

// WithCallDelay sets the initial base delay between API calls for both
// polling loops. Defaults to 1 second. Equivalent to calling
// [ClientHelper.SetCallDelay] immediately after construction.
//
// Returns an error if the duration is zero or negative.
func WithCallDelay(d time.Duration) Option {
	return func(cfg *helperConfig) error {
		if d <= 0 {
			return errors.New("call delay must be positive")
		}
		cfg.baseDelay = d
		return nil
	}
}

// WithJitter enables random jitter on polling delays, spreading call
// timing when many helpers share one API quota. Disabled by default.
func WithJitter(enabled bool) Option {
	return func(cfg *helperConfig) error {
		cfg.jitter = enabled
		return nil
	}
}

// WithCacheTTL sets how long an untouched channel's cached state
// survives. Defaults to 10 minutes. This is a memory-safety backstop;
// actively polled channels are touched every cycle and never expire.
//
// Returns an error if the duration is zero or negative.
func WithCacheTTL(d time.Duration) Option {
	return func(cfg *helperConfig) error {
		if d <= 0 {
			return errors.New("cache TTL must be positive")
		}
		cfg.cacheTTL = d
		return nil
	}
}

// WithCacheMaxEntries caps the number of channels with cached state.
// Defaults to 10000.
//
// Returns an error if the value is zero or negative.
func WithCacheMaxEntries(n int) Option {
	return func(cfg *helperConfig) error {
		if n <= 0 {
			return errors.New("cache max entries must be positive")
		}
		cfg.maxEntries = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the helper and its polling
// loops. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *helperConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

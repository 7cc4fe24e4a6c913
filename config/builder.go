package config

import (
	"log/slog"

	"github.com/gazconroy/twitch4j"
	"github.com/gazconroy/twitch4j/helix"
)

// BuildClient constructs a Helix API client from the configured
// credentials.
//
// A pre-issued access token is used directly; otherwise an app access
// token is fetched and refreshed via the client-credentials flow.
func BuildClient(cfg *Config, opts ...helix.ClientOption) *helix.Client {
	if cfg.APIURL != "" {
		opts = append([]helix.ClientOption{helix.WithBaseURL(cfg.APIURL)}, opts...)
	}
	creds := cfg.Credentials
	return helix.NewClient(creds.ClientID, buildTokenSource(creds), opts...)
}

func buildTokenSource(creds Credentials) helix.TokenSource {
	if creds.AccessToken != "" {
		return helix.StaticToken(creds.AccessToken)
	}

	var opts []helix.AppTokenOption
	if creds.TokenURL != "" {
		opts = append(opts, helix.WithTokenURL(creds.TokenURL))
	}
	return helix.NewAppTokenSource(creds.ClientID, creds.ClientSecret, opts...)
}

// BuildOptions converts parsed configuration into SDK options.
//
// SDK defaults are preserved for anything the config leaves unset.
func BuildOptions(cfg *Config, logger *slog.Logger) []twitch4j.Option {
	opts := []twitch4j.Option{
		twitch4j.WithCallDelay(cfg.CallDelay.Duration()),
		twitch4j.WithJitter(cfg.Jitter),
	}

	if cfg.CacheTTL != 0 {
		opts = append(opts, twitch4j.WithCacheTTL(cfg.CacheTTL.Duration()))
	}
	if logger != nil {
		opts = append(opts, twitch4j.WithLogger(logger))
	}

	return opts
}

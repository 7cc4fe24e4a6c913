package helix

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultTokenURL = "https://id.twitch.tv/oauth2/token" //nolint:gosec // OAuth endpoint, not a credential

// TokenSource supplies a bearer token for API requests.
type TokenSource interface {
	// Token returns a currently valid access token.
	Token(ctx context.Context) (string, error)
}

// StaticToken is a [TokenSource] returning a fixed token. Useful for
// tests and mock servers that do not validate authentication.
type StaticToken string

// Token implements [TokenSource].
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// AppTokenSource obtains and refreshes an app access token via the
// client-credentials flow. Tokens are cached until shortly before expiry.
//
// AppTokenSource is safe for concurrent use.
type AppTokenSource struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// AppTokenOption configures an [AppTokenSource].
type AppTokenOption func(*AppTokenSource)

// WithTokenURL overrides the token endpoint. Used for tests.
func WithTokenURL(u string) AppTokenOption {
	return func(a *AppTokenSource) { a.tokenURL = u }
}

// NewAppTokenSource creates an [AppTokenSource] for the given credentials.
func NewAppTokenSource(clientID, clientSecret string, opts ...AppTokenOption) *AppTokenSource {
	a := &AppTokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     defaultTokenURL,
		httpClient:   &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Token returns the cached token, refreshing it when it is within a
// minute of expiry so an in-flight call cannot outlive its token.
func (a *AppTokenSource) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.expiresAt.Add(-time.Minute)) {
		return a.accessToken, nil
	}
	return a.refreshLocked(ctx)
}

func (a *AppTokenSource) refreshLocked(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":     {a.clientID},
		"client_secret": {a.clientSecret},
		"grant_type":    {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authentication failed: %s: %s", resp.Status, string(body))
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	a.accessToken = tr.AccessToken
	a.expiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return a.accessToken, nil
}

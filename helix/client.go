// Package helix is the client for the upstream snapshot API.
//
// It exposes the three read operations the watcher core needs: liveness
// snapshots by id list, follower pages by channel id, and user lookups by
// login name. Each call accepts at most [MaxPageSize] inputs; the caller
// is responsible for chunking.
package helix

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.twitch.tv/helix"

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits to avoid resource exhaustion under steady polling
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
	defaultRequestTimeout      = 15 * time.Second
)

// Client performs authenticated requests against the snapshot API.
//
// Create with [NewClient]. Client is safe for concurrent use.
type Client struct {
	baseURL    string
	clientID   string
	tokens     TokenSource
	httpClient *http.Client
	timeout    time.Duration
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL. Used for tests and mock servers.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRequestTimeout sets the per-request timeout. Defaults to 15 seconds.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a [Client] authenticating with the given client id
// and token source.
func NewClient(clientID string, tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  defaultBaseURL,
		clientID: clientID,
		tokens:   tokens,
		timeout:  defaultRequestTimeout,
		httpClient: &http.Client{
			// per-request timeouts via context, not a global client timeout
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StreamsByID fetches the live broadcasts for the given channel ids.
// Channels that are not live are absent from the result. At most
// [MaxPageSize] ids may be passed.
func (c *Client) StreamsByID(ctx context.Context, channelIDs []string) ([]Stream, error) {
	if len(channelIDs) == 0 {
		return nil, nil
	}
	if len(channelIDs) > MaxPageSize {
		return nil, fmt.Errorf("streams request exceeds page size: %d ids", len(channelIDs))
	}

	params := url.Values{}
	for _, id := range channelIDs {
		params.Add("user_id", id)
	}
	params.Set("first", strconv.Itoa(len(channelIDs)))

	var out struct {
		Data []Stream `json:"data"`
	}
	if err := c.get(ctx, "/streams", params, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// FollowersByID fetches the most recent follower records for one channel,
// newest first, along with the channel's total follower count. At most
// limit records are returned; limit is capped at [MaxPageSize].
func (c *Client) FollowersByID(ctx context.Context, channelID string, limit int) (*FollowPage, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	params := url.Values{}
	params.Set("to_id", channelID)
	params.Set("first", strconv.Itoa(limit))

	var page FollowPage
	if err := c.get(ctx, "/users/follows", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UsersByLogin resolves login names to accounts. Names that do not exist
// are absent from the result. At most [MaxPageSize] names may be passed.
func (c *Client) UsersByLogin(ctx context.Context, logins []string) ([]User, error) {
	if len(logins) == 0 {
		return nil, nil
	}
	if len(logins) > MaxPageSize {
		return nil, fmt.Errorf("users request exceeds page size: %d logins", len(logins))
	}

	params := url.Values{}
	for _, login := range logins {
		params.Add("login", login)
	}

	var out struct {
		Data []User `json:"data"`
	}
	if err := c.get(ctx, "/users", params, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// get performs an authenticated GET and decodes the JSON response into v.
func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain access token: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-Id", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api error: %s %s: %s", resp.Status, path, string(body))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Close releases idle connections held by the client's transport.
// The client remains usable afterwards.
func (c *Client) Close() {
	if t, ok := c.httpClient.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}

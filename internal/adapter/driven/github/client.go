// Package github implements the DashboardSource and TokenValidator ports
// against the GitHub REST and GraphQL APIs.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// DefaultAPIURL is the public GitHub REST API root.
const DefaultAPIURL = "https://api.github.com/"

// Compile-time interface satisfaction checks.
var (
	_ driven.DashboardSource = (*Client)(nil)
	_ driven.TokenValidator  = (*Client)(nil)
)

// Client implements the dashboard data source using go-github for REST calls
// and plain JSON POSTs for GraphQL searches.
type Client struct {
	gh         *gh.Client
	token      string       // Stored for GraphQL Authorization header.
	graphqlURL string       // Derived from the REST base URL.
	graphql    *http.Client // Separate client for GraphQL requests.
	now        func() time.Time
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
//
// apiURL may point at a GitHub Enterprise REST root; empty means DefaultAPIURL.
// token may be empty when the client is only used to validate tokens.
func NewClient(token, apiURL string) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	client.BaseURL = base

	return &Client{
		gh:         client,
		token:      token,
		graphqlURL: graphqlEndpoint(base),
		graphql:    &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string) (*Client, error) {
	client := gh.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	client.BaseURL = base

	return &Client{
		gh:         client,
		token:      token,
		graphqlURL: graphqlEndpoint(base),
		graphql:    httpClient,
		now:        time.Now,
	}, nil
}

// Factory returns a DashboardSourceFactory that builds clients against the
// same API root. Construction errors are impossible once apiURL has been
// accepted by NewClient, so they are logged rather than returned.
func Factory(apiURL string) driven.DashboardSourceFactory {
	return func(token string) driven.DashboardSource {
		client, err := NewClient(token, apiURL)
		if err != nil {
			slog.Error("building github client", "error", err)
			return nil
		}
		return client
	}
}

// ValidateToken verifies the token by fetching the authenticated user and
// returns their login.
func (c *Client) ValidateToken(ctx context.Context, token string) (string, error) {
	login, err := viewerLogin(ctx, c.gh.WithAuthToken(token))
	if err != nil {
		return "", fmt.Errorf("validating token: %w", err)
	}
	return login, nil
}

// FetchDashboard resolves the authenticated user and runs the dashboard
// searches for them.
func (c *Client) FetchDashboard(ctx context.Context) (model.Snapshot, error) {
	if c.token == "" {
		return model.Snapshot{}, driven.ErrNotAuthenticated
	}

	login, err := viewerLogin(ctx, c.gh)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("fetching viewer: %w", err)
	}

	return c.fetchDashboard(ctx, login)
}

// viewerLogin returns the login of the user the client authenticates as.
// A 401 response is reported as driven.ErrNotAuthenticated.
func viewerLogin(ctx context.Context, client *gh.Client) (string, error) {
	user, resp, err := client.Users.Get(ctx, "")
	if err != nil {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusUnauthorized {
			return "", fmt.Errorf("%w: %s", driven.ErrNotAuthenticated, ghErr.Message)
		}
		return "", err
	}

	logRateLimit(resp, "user")

	login := user.GetLogin()
	if login == "" {
		return "", errors.New("github returned an empty login")
	}
	return login, nil
}

func logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 && resp.Rate.Limit > 0 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// parseBaseURL parses a REST API root and guarantees a trailing slash, which
// go-github requires.
func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing base URL %q: scheme and host are required", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// graphqlEndpoint derives the GraphQL URL from the REST root:
// https://api.github.com/ -> https://api.github.com/graphql and
// https://ghe.example.com/api/v3/ -> https://ghe.example.com/api/graphql.
func graphqlEndpoint(base *url.URL) string {
	u := *base
	switch {
	case strings.HasSuffix(u.Path, "/api/v3/"):
		u.Path = strings.TrimSuffix(u.Path, "v3/") + "graphql"
	default:
		u.Path += "graphql"
	}
	return u.String()
}

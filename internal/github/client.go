package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub API client
type Client struct {
	client *github.Client
	owner  string
	repo   string
}

// NewClient creates a new GitHub client with token authentication.
// Requests go through an in-memory ETag cache. Every request revalidates, so
// each poll reaches the API and an unchanged check run comes back as
// 304 Not Modified. The API base URL follows GITHUB_API_URL when set.
func NewClient(ctx context.Context, token string) (*Client, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	cached := &http.Client{Transport: &revalidateTransport{base: httpcache.NewMemoryCacheTransport()}}
	tc := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, cached), ts)

	client := github.NewClient(tc)
	if apiURL := os.Getenv("GITHUB_API_URL"); apiURL != "" {
		u, err := parseBaseURL(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GITHUB_API_URL: %w", err)
		}
		client.BaseURL = u
	}

	return &Client{client: client}, nil
}

// revalidateTransport marks every request as needing revalidation. GitHub sends
// "Cache-Control: private, max-age=60" on check-run listings, which would
// otherwise let the cache answer polls without contacting the API.
type revalidateTransport struct {
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper
func (t *revalidateTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Cache-Control", "max-age=0")
	return t.base.RoundTrip(req)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// Used by tests to point the client at an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	client := github.NewClient(httpClient)
	client.BaseURL = u

	return &Client{client: client}, nil
}

// WithRepository sets the repository context for the client
func (c *Client) WithRepository(owner, repo string) *Client {
	c.owner = owner
	c.repo = repo
	return c
}

// Repository returns the owner/name the client is bound to
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// parseBaseURL parses an API base URL, adding the trailing slash go-github requires
func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse API base URL %q: %w", raw, err)
	}
	return u, nil
}

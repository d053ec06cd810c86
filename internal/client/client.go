// Package client fetches resolved page content over HTTP with bounded
// timeouts and retries. It implements the propagation bus's Fetcher so
// invalidated cache entries can be refreshed remotely.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"git.home.luguber.info/inful/sectiond/internal/retry"
	"git.home.luguber.info/inful/sectiond/internal/section"
)

// fetchTimeout bounds a single fetch attempt; exceeding it surfaces a
// network-error state instead of hanging.
const fetchTimeout = 10 * time.Second

// ErrNetwork marks fetch failures that exhausted the retry bound. Callers
// surface it as a dismissible notification offering manual refresh.
var ErrNetwork = errors.New("content fetch failed")

// PageContent is the resolution response for one page.
type PageContent struct {
	Success    bool              `json:"success"`
	Data       []section.Section `json:"data"`
	Count      int               `json:"count"`
	Page       string            `json:"page"`
	Provenance string            `json:"provenance"`
}

// Client is a resolution API client.
type Client struct {
	baseURL string
	httpc   *http.Client
	policy  retry.Policy
}

// Option configures the client.
type Option func(*Client)

// WithRetryPolicy overrides the default fetch retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// New returns a client for the resolution API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: fetchTimeout},
		policy:  retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPage resolves a page's full content response, retrying transient
// failures up to the policy bound with backoff between attempts.
func (c *Client) FetchPage(ctx context.Context, page string) (*PageContent, error) {
	var content *PageContent
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var attemptErr error
		content, attemptErr = c.fetchOnce(ctx, page)
		if attemptErr != nil {
			slog.Debug("content fetch attempt failed", "page", page, "error", attemptErr)
		}
		return attemptErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNetwork, page, err)
	}
	return content, nil
}

// FetchSections implements propagate.Fetcher.
func (c *Client) FetchSections(ctx context.Context, page string) ([]section.Section, error) {
	content, err := c.FetchPage(ctx, page)
	if err != nil {
		return nil, err
	}
	return content.Data, nil
}

func (c *Client) fetchOnce(ctx context.Context, page string) (*PageContent, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/api/sections/%s", c.baseURL, url.PathEscape(page))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	var content PageContent
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &content, nil
}

// Package catalog talks to the music catalog service: its structured search
// endpoint, its search-results pages and its track detail pages. All requests
// share one rate-limited HTTP client; responses are classified into retryable
// and permanent failures for the resilience layer.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/cratedigger/trackmatch/internal/config"
	"github.com/cratedigger/trackmatch/internal/resilience"
)

const maxBodyBytes = 2 * 1024 * 1024

// TrackRef is one track reference returned by the structured search endpoint.
type TrackRef struct {
	URL     string
	Title   string
	Artists []string
}

// BlockError reports that the catalog served an anti-bot challenge instead of
// content. The search engine treats it as a signal to try the rendered
// fallback, not as a retryable failure.
type BlockError struct {
	URL  string
	Type BlockType
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("catalog: blocked (%s): %s", e.Type, e.URL)
}

// Client performs catalog HTTP operations.
type Client struct {
	cfg     config.CatalogConfig
	http    *http.Client
	limiter *rate.Limiter
	base    *url.URL
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a catalog client from configuration.
func NewClient(cfg config.CatalogConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: parse base url %s", cfg.BaseURL)
	}

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 4
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 8
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		cfg:     cfg,
		base:    base,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// NewClientWithOptions creates a client and applies options (used by tests to
// inject an httptest server client).
func NewClientWithOptions(cfg config.CatalogConfig, opts ...Option) (*Client, error) {
	c, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the resolved catalog base URL.
func (c *Client) BaseURL() *url.URL { return c.base }

// endpointResponse mirrors the structured search payload. Every field is
// optional; the endpoint's schema drifts between deployments.
type endpointResponse struct {
	Tracks struct {
		Data []endpointTrack `json:"data"`
	} `json:"tracks"`
	// Some deployments return a flat list instead.
	Data []endpointTrack `json:"data"`
}

type endpointTrack struct {
	ID      int    `json:"id"`
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	MixName string `json:"mix_name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

// SearchEndpoint queries the structured search endpoint and returns track
// references in response order.
func (c *Client) SearchEndpoint(ctx context.Context, query string, limit int) ([]TrackRef, error) {
	u := *c.base
	u.Path = c.cfg.SearchEndpoint
	q := u.Query()
	q.Set("q", query)
	if limit > 0 {
		q.Set("per_page", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, u.String(), "application/json")
	if err != nil {
		return nil, err
	}

	var resp endpointResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{URL: u.String(), Field: "endpoint response", Err: err}
	}

	data := resp.Tracks.Data
	if len(data) == 0 {
		data = resp.Data
	}

	refs := make([]TrackRef, 0, len(data))
	for _, t := range data {
		if t.Slug == "" || t.ID == 0 {
			continue
		}
		ref := TrackRef{
			URL:   c.trackURL(t.Slug, t.ID),
			Title: t.Name,
		}
		if t.MixName != "" {
			ref.Title = ref.Title + " (" + t.MixName + ")"
		}
		for _, a := range t.Artists {
			if a.Name != "" {
				ref.Artists = append(ref.Artists, a.Name)
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (c *Client) trackURL(slug string, id int) string {
	u := *c.base
	u.Path = "/track/" + slug + "/" + strconv.Itoa(id)
	return u.String()
}

// SearchPageURL returns the HTML search-results URL for a query.
func (c *Client) SearchPageURL(query string) string {
	u := *c.base
	u.Path = c.cfg.SearchPagePath
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchSearchPage fetches the HTML search-results page for a query.
func (c *Client) FetchSearchPage(ctx context.Context, query string) ([]byte, error) {
	return c.get(ctx, c.SearchPageURL(query), "text/html")
}

// FetchPage fetches an arbitrary catalog page (track detail pages).
func (c *Client) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	return c.get(ctx, pageURL, "text/html")
}

// get performs a rate-limited GET and classifies failures: 429 becomes a
// RateLimitError, transient statuses become TransientError, anti-bot
// challenges become BlockError, and other 4xx fail fast as plain errors.
func (c *Client) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "catalog: rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: create request %s", rawURL)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrapf(err, "catalog: fetch %s", rawURL), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrapf(err, "catalog: read body %s", rawURL), resp.StatusCode)
	}

	if blocked, blockType := DetectBlock(resp.StatusCode, resp.Header, body); blocked {
		return nil, &BlockError{URL: rawURL, Type: blockType}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, resilience.NewRateLimitError(
			eris.Errorf("catalog: status 429: %s", rawURL),
			parseRetryAfter(resp.Header.Get("Retry-After")),
		)
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(eris.Errorf("catalog: status %d: %s", resp.StatusCode, rawURL), resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, eris.Errorf("catalog: status %d: %s", resp.StatusCode, rawURL)
	}

	return body, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// Package render is a client for the headless browser rendering service. It
// exchanges a URL for the fully rendered HTML of pages that ship an empty
// application shell to plain HTTP clients.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the render service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("render: api error %d: %s", e.StatusCode, e.Message)
}

// Client calls the render service.
type Client struct {
	baseURL    string
	apiKey     string
	waitMS     int
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithWait sets how long the browser waits after load before capturing HTML.
func WithWait(ms int) Option {
	return func(c *Client) { c.waitMS = ms }
}

// NewClient creates a render service client.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		waitMS:     1500,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type renderRequest struct {
	URL    string `json:"url"`
	WaitMS int    `json:"wait_ms,omitempty"`
}

type renderResponse struct {
	HTML  string `json:"html"`
	Error string `json:"error,omitempty"`
}

// Render fetches url through the headless browser and returns the rendered
// HTML.
func (c *Client) Render(ctx context.Context, url string) ([]byte, error) {
	payload, err := json.Marshal(renderRequest{URL: url, WaitMS: c.waitMS})
	if err != nil {
		return nil, eris.Wrap(err, "render: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "render: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "render: post %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "render: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(body))}
	}

	var rr renderResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, eris.Wrap(err, "render: unmarshal response")
	}
	if rr.Error != "" {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: rr.Error}
	}
	if rr.HTML == "" {
		return nil, eris.New("render: empty html in response")
	}

	return []byte(rr.HTML), nil
}

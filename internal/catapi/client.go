// Package catapi looks up random cat image URLs from The Cat API.
package catapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oremus-labs/catchat/internal/logutil"
	"github.com/oremus-labs/catchat/internal/metrics"
	"github.com/xeipuuv/gojsonschema"
)

const (
	// DefaultSearchURL is the image search endpoint queried for every event.
	DefaultSearchURL = "https://api.thecatapi.com/v1/images/search"
	// DefaultFallbackURL is served whenever the search endpoint is unusable.
	DefaultFallbackURL = "https://cataas.com/cat"

	maxResponseBytes = 1 << 20
)

// searchSchema describes the subset of the search response this client depends on.
const searchSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["url"],
    "properties": {
      "url": {"type": "string", "minLength": 1}
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(searchSchema)

// ErrUnexpectedPayload is returned when the search response does not match the expected shape.
var ErrUnexpectedPayload = errors.New("catapi: unexpected search payload")

type searchResult struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client fetches image URLs and degrades to a fixed fallback on any failure.
type Client struct {
	http        *http.Client
	searchURL   string
	fallbackURL string
	apiKey      string
	timeout     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithSearchURL overrides the search endpoint.
func WithSearchURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.searchURL = u
		}
	}
}

// WithFallbackURL overrides the fallback image URL.
func WithFallbackURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.fallbackURL = u
		}
	}
}

// WithAPIKey sets the optional x-api-key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout bounds each lookup. Zero leaves the transport default in place.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a new Cat API client.
func New(opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{},
		searchURL:   DefaultSearchURL,
		fallbackURL: DefaultFallbackURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FallbackURL returns the URL served when a lookup fails.
func (c *Client) FallbackURL() string {
	return c.fallbackURL
}

// ImageURL returns a random cat image URL, or the fallback URL if the lookup fails.
// Failures are logged and never returned.
func (c *Client) ImageURL(ctx context.Context) string {
	start := time.Now()
	u, err := c.Search(ctx)
	if err != nil {
		metrics.ObserveImageFetch(metrics.FetchFallback, time.Since(start))
		if ctx.Err() == nil {
			logutil.Error("cat image lookup failed, using fallback", err, logutil.Fields{
				"searchUrl":   c.searchURL,
				"fallbackUrl": c.fallbackURL,
			})
		}
		return c.fallbackURL
	}
	metrics.ObserveImageFetch(metrics.FetchSuccess, time.Since(start))
	return u
}

// Search performs a single lookup and returns the first image URL.
func (c *Client) Search(ctx context.Context) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch cat image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("cat API returned status %d: %s", resp.StatusCode, string(body))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read cat API response: %w", err)
	}

	return parseSearch(raw)
}

func parseSearch(raw []byte) (string, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
	}
	if !result.Valid() {
		msg := "schema mismatch"
		if errs := result.Errors(); len(errs) > 0 {
			msg = errs[0].String()
		}
		return "", fmt.Errorf("%w: %s", ErrUnexpectedPayload, msg)
	}

	var results []searchResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
	}
	return results[0].URL, nil
}

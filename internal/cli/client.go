package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Frame is one decoded /events payload. Connected notices set Type; greeting
// events set Message and Image.
type Frame struct {
	Type      string `json:"type,omitempty"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message,omitempty"`
	Image     string `json:"image,omitempty"`
}

// IsConnected reports whether f is the stream's opening notice.
func (f Frame) IsConnected() bool {
	return f.Type == "connected"
}

// Health mirrors the GET / payload.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client wraps API calls.
type Client struct {
	BaseURL string
	Timeout time.Duration
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

// GetJSON issues a GET and decodes the JSON response into target.
func (c *Client) GetJSON(ctx context.Context, path string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	httpClient := &http.Client{Timeout: c.Timeout}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", req.Method, path, resp.Status)
	}
	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// StreamFrames opens the SSE feed and invokes handler for each frame. Returning false stops the stream.
func (c *Client) StreamFrames(ctx context.Context, handler func(Frame) bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/events"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// No client timeout: the stream is unbounded.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s failed: %s", "/events", resp.Status)
	}

	return readFrames(ctx, resp.Body, handler)
}

func readFrames(ctx context.Context, body io.Reader, handler func(Frame) bool) error {
	reader := bufio.NewReader(body)
	var dataLines []string

	dispatch := func() bool {
		if len(dataLines) == 0 {
			return true
		}
		raw := strings.Join(dataLines, "\n")
		dataLines = dataLines[:0]

		var frame Frame
		if err := json.Unmarshal([]byte(raw), &frame); err != nil {
			printErrorLine("skipping undecodable frame: %v", err)
			return true
		}
		if handler != nil {
			return handler(frame)
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if !dispatch() {
				return nil
			}
		case strings.HasPrefix(line, ":"):
			// comment / keepalive
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(line[len("data:"):]))
		}
	}
}

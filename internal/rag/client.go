package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable wraps failures to reach the search server at all.
var ErrUnavailable = errors.New("rag server unavailable")

// StatusError is a non-200 reply from the search server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rag server returned %d: %s", e.Code, e.Body)
}

// Client calls a /search endpoint.
type Client struct {
	url  string
	http *http.Client
}

// NewClient targets the full /search URL. A non-positive timeout means 15s.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

// URL is the endpoint the client posts to.
func (c *Client) URL() string { return c.url }

// Search posts {query, k} and returns the results in server order.
func (c *Client) Search(ctx context.Context, query string, k int) ([]Result, error) {
	body, err := json.Marshal(SearchRequest{Query: query, K: k})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isDialError(err) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("rag search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var out SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return out.Results, nil
}

func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

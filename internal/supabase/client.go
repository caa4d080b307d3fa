// Package supabase implements the sounds.Store remote data service
// over a Supabase-style REST API. Reads treat empty results as misses;
// any non-2xx response on a mutation is an error.
package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config configures the REST client.
type Config struct {
	// ProjectURL is the backend base URL, e.g. https://abc.supabase.co.
	ProjectURL string
	// APIKey is sent as both the apikey header and the bearer token
	// unless a user token is set.
	APIKey string
	// UserToken, when set, is sent as the bearer token so row-level
	// security applies to the signed-in user.
	UserToken string
	// Timeout bounds each request. Zero means 15 seconds.
	Timeout time.Duration
}

// Client performs REST calls against the backend's tables.
type Client struct {
	prefix string
	apiKey string
	token  string
	http   *http.Client
}

// NewClient creates a REST client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ProjectURL == "" {
		return nil, fmt.Errorf("project URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	token := cfg.UserToken
	if token == "" {
		token = cfg.APIKey
	}

	return &Client{
		prefix: strings.TrimRight(cfg.ProjectURL, "/") + "/rest/v1",
		apiKey: cfg.APIKey,
		token:  token,
		http:   &http.Client{Timeout: timeout},
	}, nil
}

// Select performs a GET on a table with an already-encoded query string.
func (c *Client) Select(ctx context.Context, table, query string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, table, query, nil, nil)
}

// Insert performs a POST into a table, returning the created rows.
func (c *Client) Insert(ctx context.Context, table string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, table, "", body, map[string]string{
		"Prefer": "return=representation",
	})
}

// Update performs a PATCH on the rows matched by query.
func (c *Client) Update(ctx context.Context, table, query string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, table, query, body, nil)
}

// Delete removes the rows matched by query.
func (c *Client) Delete(ctx context.Context, table, query string) error {
	_, err := c.do(ctx, http.MethodDelete, table, query, nil, nil)
	return err
}

// Rpc invokes a server-side function. Mutations that must be atomic
// (membership replacement, audio cropping) go through functions rather
// than multiple REST writes.
func (c *Client) Rpc(ctx context.Context, fn string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "rpc/"+fn, "", body, nil)
}

// do executes one REST request and returns the response body.
func (c *Client) do(ctx context.Context, method, table, query string, body []byte, extra map[string]string) ([]byte, error) {
	if table == "" {
		return nil, fmt.Errorf("table is required")
	}

	segments := strings.Split(table, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	endpoint := c.prefix + "/" + strings.Join(segments, "/")
	if query != "" {
		endpoint += "?" + query
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", method, table, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, table, resp.StatusCode, truncateBody(data))
	}
	return data, nil
}

// truncateBody keeps error messages readable for large error payloads.
func truncateBody(data []byte) string {
	const max = 256
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}

// Package slskd is a client for the slskd REST API.
package slskd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/cesargomez89/slskdsync/internal/constants"
	"github.com/cesargomez89/slskdsync/internal/httpclient"
)

var ErrNoSessionID = errors.New("search submitted without a session id")

// Error is a non-2xx response from slskd.
type Error struct {
	Op     string
	Status int
	Body   string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("slskd %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("slskd %s: status %d: %s", e.Op, e.Status, e.Body)
}

// Config describes how to reach slskd.
type Config struct {
	Host              string
	URLBase           string
	APIKey            string
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client talks to one slskd instance.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	newID   func() string
}

// New builds a client for cfg.
func New(cfg Config) (*Client, error) {
	base, err := apiBase(cfg.Host, cfg.URLBase)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    httpclient.NewClient(cfg.HTTPClient, cfg.RequestsPerSecond),
		newID:   func() string { return uuid.NewString() },
	}, nil
}

func apiBase(host, urlBase string) (string, error) {
	u, err := url.Parse(strings.TrimRight(host, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid slskd host %q: %w", host, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid slskd host %q: scheme and host required", host)
	}
	base := u.String()
	if trimmed := strings.Trim(urlBase, "/"); trimmed != "" {
		base += "/" + trimmed
	}
	return base + "/" + constants.SlskdAPIPrefix, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("slskd %s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("slskd %s: %w", op, err)
	}
	req.Header.Set(constants.SlskdAPIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("slskd %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("slskd %s: decode response: %w", op, err)
	}
	return nil
}

// Package client retrieves server snapshots from a Zenit collector over its
// admin HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/zenit-dash/internal/dashboard"
	"github.com/woozymasta/zenit-dash/internal/vars"
)

// ErrNotFound is returned when the collector does not know a node.
var ErrNotFound = errors.New("node not found")

// maxErrorBody bounds how much of an error response is read into messages.
const maxErrorBody = 512

// Client talks to the collector admin API.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// New creates a Client for the collector at baseURL.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// Records fetches every node known to the collector.
func (c *Client) Records(ctx context.Context) ([]dashboard.Record, error) {
	var records []dashboard.Record
	if err := c.getJSON(ctx, "/api/stats", nil, true, &records); err != nil {
		return nil, fmt.Errorf("fetch stats: %w", err)
	}
	if records == nil {
		records = []dashboard.Record{}
	}

	return records, nil
}

// Countries fetches the collector's ISO code to country name table.
func (c *Client) Countries(ctx context.Context) (dashboard.IsoMap, error) {
	var iso dashboard.IsoMap
	if err := c.getJSON(ctx, "/data/iso3166.min.json", nil, false, &iso); err != nil {
		return nil, fmt.Errorf("fetch country names: %w", err)
	}

	return iso, nil
}

// Node fetches the stored record of one node.
func (c *Client) Node(ctx context.Context, key dashboard.NodeKey) (*dashboard.Record, error) {
	var rec dashboard.Record
	if err := c.getJSON(ctx, "/api/node", nodeQuery(key), true, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

// DeleteNode asks the collector to forget a node.
func (c *Client) DeleteNode(ctx context.Context, key dashboard.NodeKey) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/node", nodeQuery(key), true)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var status struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode delete response: %w", err)
	}
	if status.Status != "ok" {
		return fmt.Errorf("delete %s: %s", key, status.Message)
	}

	return nil
}

func nodeQuery(key dashboard.NodeKey) url.Values {
	return url.Values{
		"app":  {key.Application},
		"ip":   {key.IP},
		"port": {strconv.Itoa(key.Port)},
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, auth bool, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, auth)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}

// do sends a request and turns non-2xx responses into errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, auth bool) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", vars.UserAgent())
	req.Header.Set("Accept", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Collector request")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound && path == "/api/node" {
		return nil, ErrNotFound
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(body)))
}

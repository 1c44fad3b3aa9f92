// Package client is a thin SDK over the reviewbadged HTTP API, used by the
// TUI popup and the MCP adapter.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to a local reviewbadged instance.
type Client struct {
	endpoint string
	http     *http.Client
}

// BadgeResponse mirrors the daemon's /v1/badge reply.
type BadgeResponse struct {
	Text string `json:"text"`
}

// Settings mirrors the daemon's /v1/settings reply.
type Settings struct {
	UpdateIntervalMinutes int             `json:"update_interval_minutes"`
	Configured            map[string]bool `json:"configured"`
}

// SettingsUpdate is the PUT /v1/settings body.
type SettingsUpdate struct {
	UpdateIntervalMinutes *int              `json:"update_interval_minutes,omitempty"`
	Credentials           map[string]string `json:"credentials,omitempty"`
}

// NewClient creates a new client.
// endpoint defaults to "http://127.0.0.1:8730" if empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8730"
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetReviews fetches the per-provider pending review counts.
func (c *Client) GetReviews(ctx context.Context) (map[string]int, error) {
	var counts map[string]int
	if err := c.getJSON(ctx, "/v1/reviews", &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// GetBadge fetches the current badge text ("" when cleared).
func (c *Client) GetBadge(ctx context.Context) (string, error) {
	var resp BadgeResponse
	if err := c.getJSON(ctx, "/v1/badge", &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Refresh asks the daemon to run an update cycle now.
func (c *Client) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/v1/refresh", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

// GetSettings fetches the current interval and configured providers.
func (c *Client) GetSettings(ctx context.Context) (Settings, error) {
	var settings Settings
	err := c.getJSON(ctx, "/v1/settings", &settings)
	return settings, err
}

// UpdateSettings applies a partial settings update.
func (c *Client) UpdateSettings(ctx context.Context, update SettingsUpdate) (Settings, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to marshal settings: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "PUT", c.endpoint+"/v1/settings", bytes.NewReader(body))
	if err != nil {
		return Settings{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Settings{}, fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Settings{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var settings Settings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Ping checks the health of the daemon.
func (c *Client) Ping(ctx context.Context) error {
	var status struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/v1/health", &status); err != nil {
		return err
	}
	if status.Status != "ok" {
		return fmt.Errorf("unexpected health status: %s", status.Status)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hamed0406/healthwatch/internal/domain"
)

// Client reads service state from a running daemon's status API. Requests
// are bounded by the caller's context only; a manual check waits behind any
// cycle already running for that service.
type Client struct {
	BaseURL    string
	Key        string
	HTTPClient *http.Client
}

func NewClient(baseURL, key string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Key:        key,
		HTTPClient: &http.Client{},
	}
}

func (c *Client) ListServices(ctx context.Context) ([]domain.ServiceSnapshot, error) {
	var out []domain.ServiceSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/services", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetService(ctx context.Context, id string) (*domain.ServiceSnapshot, error) {
	var out domain.ServiceSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/services/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckNow asks the daemon to run one cycle immediately and returns the
// resulting snapshot. Requires an admin key.
func (c *Client) CheckNow(ctx context.Context, id string) (*domain.ServiceSnapshot, error) {
	var out domain.ServiceSnapshot
	if err := c.do(ctx, http.MethodPost, "/api/services/"+url.PathEscape(id)+"/check", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if c.Key != "" {
		req.Header.Set("X-API-Key", c.Key)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds validation provider configuration
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the phone-number lookup provider
type Client struct {
	httpClient *http.Client
	config     Config
}

// LookupResult is the provider's answer for one number on one channel
type LookupResult struct {
	PhoneNumber string `json:"phone_number"`
	Channel     string `json:"channel"`
	Registered  bool   `json:"registered"`
	DisplayName string `json:"display_name,omitempty"`
	LastSeen    string `json:"last_seen,omitempty"`
}

// NewClient creates new lookup provider client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
	}
}

// Lookup checks whether phone is registered on the given channel
func (c *Client) Lookup(ctx context.Context, channel, phone string) (*LookupResult, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, fmt.Errorf("validation error: phone must be non-empty")
	}
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("provider client is not initialized")
	}
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return nil, fmt.Errorf("provider config error: base_url is empty")
	}

	base := strings.TrimRight(c.config.BaseURL, "/")
	endpoint := fmt.Sprintf("%s/v1/lookup/%s?phone=%s", base, channel, url.QueryEscape(phone))

	timeout := c.config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("provider api call failed: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("provider api call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provider api call failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider api returned non-2xx status: %d, body: %s", resp.StatusCode, string(body))
	}

	var out LookupResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse provider response: %w", err)
	}

	return &out, nil
}

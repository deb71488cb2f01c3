package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Session statuses reported by the checkout provider.
const (
	SessionPending = "pending"
	SessionPaid    = "paid"
	SessionExpired = "expired"
	SessionFailed  = "failed"
)

// Config holds checkout gateway configuration
type Config struct {
	BaseURL    string
	MerchantID string
	SecretKey  string
	TestMode   bool
	Timeout    time.Duration
}

// Client talks to the external checkout provider
type Client struct {
	httpClient *http.Client
	config     Config
}

// CreateSessionRequest represents checkout session creation parameters
type CreateSessionRequest struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	OrderID     string  `json:"order_id"`
	Description string  `json:"description"`
	SuccessURL  string  `json:"success_url"`
	CancelURL   string  `json:"cancel_url"`
	CallbackURL string  `json:"callback_url"`
	TestMode    bool    `json:"test_mode,omitempty"`
}

// CreateSessionResponse represents a created checkout session
type CreateSessionResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
}

// SessionStatus represents a checkout session status snapshot
type SessionStatus struct {
	SessionID string     `json:"session_id"`
	Status    string     `json:"status"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// NewClient creates new checkout gateway client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
	}
}

// CreateSession opens a checkout session and returns the redirect URL
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResponse, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("validation error: amount must be > 0")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, fmt.Errorf("validation error: order_id must be non-empty")
	}
	if err := c.checkConfig(); err != nil {
		return nil, err
	}

	req.TestMode = c.config.TestMode

	var out CreateSessionResponse
	if err := c.post(ctx, "/api/v1/sessions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession fetches the current status of a checkout session
func (c *Client) GetSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("validation error: session_id must be non-empty")
	}
	if err := c.checkConfig(); err != nil {
		return nil, err
	}

	base := strings.TrimRight(c.config.BaseURL, "/")
	url := base + "/api/v1/sessions/" + sessionID

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway api call failed: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.MerchantID)

	body, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var out SessionStatus
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode gateway request: %w", err)
	}

	base := strings.TrimRight(c.config.BaseURL, "/")
	url := base + path

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("gateway api call failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.MerchantID)

	body, err := c.do(httpReq)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse gateway response: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway api call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway api call failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway api returned non-2xx status: %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *Client) checkConfig() error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("gateway client is not initialized")
	}
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return fmt.Errorf("gateway config error: base_url is empty")
	}
	if strings.TrimSpace(c.config.MerchantID) == "" {
		return fmt.Errorf("gateway config error: merchant_id is empty")
	}
	return nil
}

func (c *Client) timeout() time.Duration {
	if c.config.Timeout == 0 {
		return 30 * time.Second
	}
	return c.config.Timeout
}

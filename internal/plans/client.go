package plans

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to the billing portion of the backend API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a billing Client for the given API base URL.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger.With().Str("component", "plans").Logger(),
	}
}

// Catalog fetches the billing plan catalog. When the endpoint is
// unreachable or the payload fails validation it falls back to the
// built-in catalog so the purchase screen always has something to show.
func (c *Client) Catalog(ctx context.Context) []Plan {
	catalog, err := c.fetchCatalog(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("using built-in plan catalog")
		return BuiltinCatalog()
	}
	return catalog
}

func (c *Client) fetchCatalog(ctx context.Context) ([]Plan, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/billing/plans", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch plans: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch plans: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read plans: %w", err)
	}
	if err := validateCatalog(raw); err != nil {
		return nil, err
	}

	var catalog []Plan
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}
	return catalog, nil
}

// Purchase buys the given plan for the signed-in user and returns the
// transaction. The caller is responsible for reflecting the new balance
// in the session.
func (c *Client) Purchase(ctx context.Context, token, planID string) (*Transaction, error) {
	body, err := json.Marshal(map[string]string{"plan_id": planID})
	if err != nil {
		return nil, fmt.Errorf("encode purchase: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/billing/purchase", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("purchase: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("purchase: status %d", resp.StatusCode)
	}

	var tx Transaction
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return &tx, nil
}

// Balance fetches the server-side credit balance for the signed-in user.
func (c *Client) Balance(ctx context.Context, token string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/billing/credits/balance", nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch balance: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch balance: status %d", resp.StatusCode)
	}

	var out struct {
		Credits int `json:"credits_balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode balance: %w", err)
	}
	return out.Credits, nil
}

// Package loyalty talks to the partner loyalty points service. The
// integration is best effort: contract processing never fails because
// points could not be moved.
package loyalty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/grupovitta/backoffice-api/internal/config"
)

// Client moves loyalty points for a client account
type Client interface {
	Deposit(ctx context.Context, taxDocument string, points int, reference string) error
	Withdraw(ctx context.Context, taxDocument string, points int, reference string) error
}

// HTTPClient implements Client against the loyalty REST API
type HTTPClient struct {
	cfg        *config.LoyaltyConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a loyalty client, or nil when the integration is disabled
func NewClient(cfg *config.LoyaltyConfig, logger *zap.Logger) Client {
	if !cfg.Enabled || cfg.BaseURL == "" {
		return nil
	}

	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type movementRequest struct {
	TaxDocument string `json:"taxDocument"`
	Points      int    `json:"points"`
	Reference   string `json:"reference"`
}

// Deposit credits points to the account identified by tax document
func (c *HTTPClient) Deposit(ctx context.Context, taxDocument string, points int, reference string) error {
	return c.post(ctx, "/v1/points/deposit", movementRequest{
		TaxDocument: taxDocument,
		Points:      points,
		Reference:   reference,
	})
}

// Withdraw debits points from the account identified by tax document
func (c *HTTPClient) Withdraw(ctx context.Context, taxDocument string, points int, reference string) error {
	return c.post(ctx, "/v1/points/withdraw", movementRequest{
		TaxDocument: taxDocument,
		Points:      points,
		Reference:   reference,
	})
}

func (c *HTTPClient) post(ctx context.Context, path string, payload movementRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode loyalty request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build loyalty request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("loyalty request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("loyalty service returned status %d: %s", resp.StatusCode, string(msg))
	}

	c.logger.Debug("Loyalty movement accepted",
		zap.String("path", path),
		zap.Int("points", payload.Points),
		zap.String("reference", payload.Reference),
	)
	return nil
}

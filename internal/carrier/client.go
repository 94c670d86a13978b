package carrier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/grupovitta/backoffice-api/internal/config"
)

// maxResponseBytes bounds how much of a carrier response is read. The
// carrier occasionally returns HTML error pages; never buffer them whole.
const maxResponseBytes = 4 << 20

// PolicyGateway is implemented by the carrier client. Calls return a Result
// in every case; they never propagate errors.
type PolicyGateway interface {
	IssuePolicy(ctx context.Context, p IssueParams) Result
	CancelPolicy(ctx context.Context, p CancelParams) Result
}

// Client talks to the carrier's XML gateway. The carrier is slow and
// unreliable; every call carries an explicit deadline and every failure
// mode is converted into a non-success Result.
type Client struct {
	cfg        *config.CarrierConfig
	codec      *Codec
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a carrier gateway client
func NewClient(cfg *config.CarrierConfig, logger *zap.Logger) *Client {
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cfg: cfg,
		codec: &Codec{
			Username: cfg.Username,
			Password: cfg.Password,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// IssuePolicy sends an issue request to the carrier
func (c *Client) IssuePolicy(ctx context.Context, p IssueParams) Result {
	body, err := c.codec.EncodeIssueRequest(p)
	if err != nil {
		return Result{ReturnMessage: fmt.Sprintf("invalid issue request: %v", err)}
	}

	raw, err := c.post(ctx, body)
	if err != nil {
		c.logger.Warn("Carrier issue call failed",
			zap.String("partner_operation_id", p.PartnerOperationID),
			zap.Error(err),
		)
		return Result{RawRequest: string(body), ReturnMessage: err.Error()}
	}

	res := DecodeIssueResponse(raw)
	res.RawRequest = string(body)

	c.logger.Info("Carrier issue response",
		zap.String("partner_operation_id", p.PartnerOperationID),
		zap.Bool("success", res.Success),
		zap.String("return_code", res.ReturnCode),
		zap.String("policy_number", res.PolicyNumber),
	)
	return res
}

// CancelPolicy sends a cancellation request to the carrier
func (c *Client) CancelPolicy(ctx context.Context, p CancelParams) Result {
	body, err := c.codec.EncodeCancelRequest(p)
	if err != nil {
		return Result{ReturnMessage: fmt.Sprintf("invalid cancel request: %v", err)}
	}

	raw, err := c.post(ctx, body)
	if err != nil {
		c.logger.Warn("Carrier cancel call failed",
			zap.String("operation_number", p.OperationNumber),
			zap.Error(err),
		)
		return Result{RawRequest: string(body), ReturnMessage: err.Error()}
	}

	res := DecodeCancelResponse(raw)
	res.RawRequest = string(body)

	c.logger.Info("Carrier cancel response",
		zap.String("operation_number", p.OperationNumber),
		zap.Bool("success", res.Success),
		zap.String("return_code", res.ReturnCode),
	)
	return res
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	if c.cfg.Endpoint == "" {
		return nil, fmt.Errorf("carrier endpoint not configured")
	}
	if c.codec.Username == "" || c.codec.Password == "" {
		return nil, fmt.Errorf("carrier credentials not configured")
	}

	timeout := c.cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build carrier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("carrier request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read carrier response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("carrier returned status %d", resp.StatusCode)
	}

	return raw, nil
}

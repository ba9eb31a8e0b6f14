package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AlexZinkM/sol-donate-bot/internal/model"

	"golang.org/x/time/rate"
)

// maxResponseSize caps the donation service answer; a one-instruction transaction is ~300 bytes
const maxResponseSize = 64 << 10

// DonateConfig holds configuration for the donation service client.
type DonateConfig struct {
	// URL is the endpoint returning unsigned donation transactions.
	URL string

	// RateLimit is the number of requests per second allowed.
	// Default: 5
	RateLimit int

	// Timeout is the HTTP request timeout.
	// Default: 15 seconds
	Timeout time.Duration
}

// DonateClient requests unsigned donation transactions from the remote donation service
type DonateClient struct {
	cfg         DonateConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewDonateClient creates a new donation service client
func NewDonateClient(cfg DonateConfig) *DonateClient {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &DonateClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit),
	}
}

// RequestTransaction posts req and returns the service answer. No retries.
func (c *DonateClient) RequestTransaction(ctx context.Context, req *model.TransactionRequest) (*model.TransactionResponse, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to request transaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to request transaction: status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(respBody) > maxResponseSize {
		return nil, errors.New("failed to read response: body too large")
	}

	var txResp model.TransactionResponse
	if err := json.Unmarshal(respBody, &txResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if txResp.Transaction == "" {
		return nil, errors.New("failed to decode response: missing transaction")
	}

	return &txResp, nil
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	coingeckoAPI = "https://api.coingecko.com/api/v3"
)

// CoinGeckoClient client for CoinGecko API
type CoinGeckoClient struct {
	baseURL string
	client  *http.Client
}

// NewCoinGeckoClient creates a new CoinGecko client
func NewCoinGeckoClient() *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL: coingeckoAPI,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// PriceResponse response from CoinGecko API
type PriceResponse struct {
	Solana struct {
		USD float64 `json:"usd"`
	} `json:"solana"`
}

// GetSOLtoUSDRate gets SOL to USD exchange rate
func (c *CoinGeckoClient) GetSOLtoUSDRate(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/simple/price?ids=solana&vs_currencies=usd", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to get rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to get rate: status %d", resp.StatusCode)
	}

	var priceResp PriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&priceResp); err != nil {
		return 0, fmt.Errorf("failed to decode rate: %w", err)
	}
	if priceResp.Solana.USD <= 0 {
		return 0, fmt.Errorf("failed to get rate: no SOL price in response")
	}

	return priceResp.Solana.USD, nil
}

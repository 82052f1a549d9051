package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client reads average flea market prices from the pricing backend.
type Client struct {
	client  *resty.Client
	baseURL string
}

type pricesResponse struct {
	Code   string             `json:"code"`
	Prices map[string]float64 `json:"prices"`
	Msg    string             `json:"msg"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "Blackmarket-Trader/1.0")
	client.SetHeader("Accept", "application/json")

	return &Client{
		client:  client,
		baseURL: baseURL,
	}
}

func (c *Client) FetchPrices(ctx context.Context) (map[string]float64, error) {
	url := fmt.Sprintf("%s/prices", c.baseURL)

	resp, err := c.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("market API returned status %d", resp.StatusCode())
	}

	var pricesResp pricesResponse
	if err := json.Unmarshal(resp.Body(), &pricesResp); err != nil {
		return nil, fmt.Errorf("decode market prices: %w", err)
	}

	if pricesResp.Code != "" && pricesResp.Code != "OK" {
		return nil, fmt.Errorf("market API error: %s", pricesResp.Msg)
	}

	return pricesResp.Prices, nil
}

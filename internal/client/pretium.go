package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"semunipay/internal/model"

	"github.com/shopspring/decimal"
)

const (
	requestTimeout = 15 * time.Second
)

// PretiumClient client for the Pretium settlement/exchange-rate API
type PretiumClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPretiumClient creates a new Pretium client
func NewPretiumClient(baseURL, apiKey string) *PretiumClient {
	return &PretiumClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// exchangeRateResponse response from POST /exchange-rate
type exchangeRateResponse struct {
	Data struct {
		BuyingRate  string `json:"buying_rate"`
		SellingRate string `json:"selling_rate"`
	} `json:"data"`
}

// ExchangeRate gets the fiat buying rate for one token unit (e.g. ETB per USDC)
func (c *PretiumClient) ExchangeRate(ctx context.Context, currencyCode string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/exchange-rate", c.baseURL)

	body, err := json.Marshal(map[string]string{"currency_code": currencyCode})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to marshal rate request: %w", err)
	}

	resp, err := c.post(ctx, url, body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("failed to get rate: status %d", resp.StatusCode)
	}

	var rateResp exchangeRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&rateResp); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode rate: %w", err)
	}

	rate, err := decimal.NewFromString(rateResp.Data.BuyingRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse buying rate %q: %w", rateResp.Data.BuyingRate, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive buying rate %q", rateResp.Data.BuyingRate)
	}

	return rate, nil
}

// Pay submits a disbursement order for a confirmed on-chain transfer.
// The remote side is the system of record for delivery; a non-2xx status
// here means the order was not accepted, not that the transfer failed.
func (c *PretiumClient) Pay(ctx context.Context, currencyCode string, req model.SettlementRequest) error {
	url := fmt.Sprintf("%s/pay/%s", c.baseURL, currencyCode)

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal pay request: %w", err)
	}

	resp, err := c.post(ctx, url, body)
	if err != nil {
		return fmt.Errorf("failed to submit payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("failed to submit payment: status %d: %s", resp.StatusCode, detail)
	}

	return nil
}

func (c *PretiumClient) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	return c.client.Do(req)
}

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// CoinGeckoClient fetches OHLCV candles. Modeled only at the interface
// level: the upstream response shape is assumed to already match Candle
// except for the missing source field, which is injected here for
// provenance tracking, mirroring the Python reference client's
// data.setdefault("source", "coingecko").
type CoinGeckoClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewCoinGeckoClient(baseURL string, httpClient *http.Client) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &CoinGeckoClient{BaseURL: baseURL, HTTP: httpClient}
}

func (c *CoinGeckoClient) GetCandles(ctx context.Context, assetID string) ([]Candle, error) {
	url := fmt.Sprintf("%s/candles/%s", c.BaseURL, assetID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(url, resp.StatusCode)
	}

	var candles []Candle
	if err := json.NewDecoder(resp.Body).Decode(&candles); err != nil {
		return nil, err
	}
	for i := range candles {
		if candles[i].Source == "" {
			candles[i].Source = "coingecko"
		}
	}
	return candles, nil
}

package providers

import (
	"context"
	"encoding/json"
	"net/http"
)

// EtherscanClient fetches Ethereum gas price estimates.
type EtherscanClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewEtherscanClient(baseURL, apiKey string, httpClient *http.Client) *EtherscanClient {
	if baseURL == "" {
		baseURL = "https://api.etherscan.io/api"
	}
	return &EtherscanClient{BaseURL: baseURL, APIKey: apiKey, HTTP: httpClient}
}

func (c *EtherscanClient) GetGasPrices(ctx context.Context) (GasPrices, error) {
	url := c.BaseURL + "/gas"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return GasPrices{}, err
	}
	if c.APIKey != "" {
		req.Header.Set("X-Api-Key", c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return GasPrices{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GasPrices{}, newStatusError(url, resp.StatusCode)
	}

	var gas GasPrices
	if err := json.NewDecoder(resp.Body).Decode(&gas); err != nil {
		return GasPrices{}, err
	}
	if gas.Source == "" {
		gas.Source = "etherscan"
	}
	return gas, nil
}

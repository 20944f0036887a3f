package providers

import (
	"context"
	"encoding/json"
	"net/http"
)

// MempoolSpaceClient fetches Bitcoin mempool statistics.
type MempoolSpaceClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewMempoolSpaceClient(baseURL, apiKey string, httpClient *http.Client) *MempoolSpaceClient {
	if baseURL == "" {
		baseURL = "https://mempool.space/api"
	}
	return &MempoolSpaceClient{BaseURL: baseURL, APIKey: apiKey, HTTP: httpClient}
}

func (c *MempoolSpaceClient) GetMempool(ctx context.Context) (MempoolData, error) {
	url := c.BaseURL + "/mempool"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return MempoolData{}, err
	}
	if c.APIKey != "" {
		req.Header.Set("X-Api-Key", c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return MempoolData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return MempoolData{}, newStatusError(url, resp.StatusCode)
	}

	var data MempoolData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return MempoolData{}, err
	}
	if data.Source == "" {
		data.Source = "mempool.space"
	}
	return data, nil
}

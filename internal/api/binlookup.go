package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultBinLookupURL = "https://data.handyapi.com/bin"

// BinLookupClient proxies card BIN lookups to the external provider so
// the API key never reaches the storefront client.
type BinLookupClient struct {
	log     zerolog.Logger
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewBinLookupClient creates a lookup client. An empty baseURL selects
// the default provider.
func NewBinLookupClient(apiKey, baseURL string, baseLogger *zerolog.Logger) *BinLookupClient {
	if baseURL == "" {
		baseURL = defaultBinLookupURL
	}
	return &BinLookupClient{
		log:     baseLogger.With().Str("component", "bin_lookup").Logger(),
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Lookup fetches issuer details for the first digits of a card number.
func (c *BinLookupClient) Lookup(ctx context.Context, bin string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+bin, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error().Err(err).Msg("BIN lookup request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("BIN lookup returned non-OK status")
		return nil, fmt.Errorf("bin lookup failed with status %d", resp.StatusCode)
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

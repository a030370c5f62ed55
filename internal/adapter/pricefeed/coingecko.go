// Package pricefeed fetches current coin prices from the CoinGecko markets API.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"coin-ledger/config"

	"github.com/shopspring/decimal"
)

// HTTPClient abstracts HTTP calls for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// CoinGecko implements ports.PriceFeed.
type CoinGecko struct {
	client     HTTPClient
	baseURL    string
	vsCurrency string
	apiKey     string
}

// NewCoinGecko creates a markets client. client is usually an *http.Client
// with cfg.Timeout set.
func NewCoinGecko(client HTTPClient, cfg config.PriceFeedConfig) *CoinGecko {
	return &CoinGecko{
		client:     client,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		vsCurrency: cfg.VsCurrency,
		apiKey:     cfg.APIKey,
	}
}

type marketRow struct {
	ID           string      `json:"id"`
	Symbol       string      `json:"symbol"`
	CurrentPrice json.Number `json:"current_price"`
}

// FetchPrices returns the current price of each known symbol. Symbols the feed
// does not list, or lists without a price, are absent from the result.
func (c *CoinGecko) FetchPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("symbols", strings.Join(symbols, ","))
	addr := c.baseURL + "/coins/markets?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("building price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetching prices: unexpected status %s", resp.Status)
	}

	var rows []marketRow
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding prices: %w", err)
	}

	// Rows come ordered by market cap; the first listing of a symbol wins.
	for _, r := range rows {
		sym := strings.ToLower(r.Symbol)
		if _, seen := out[sym]; seen || r.CurrentPrice == "" {
			continue
		}
		price, err := decimal.NewFromString(r.CurrentPrice.String())
		if err != nil {
			continue
		}
		out[sym] = price
	}
	return out, nil
}

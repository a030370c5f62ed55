package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"coin-ledger/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeed(t *testing.T, h http.HandlerFunc) *CoinGecko {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewCoinGecko(srv.Client(), config.PriceFeedConfig{
		BaseURL:    srv.URL + "/",
		VsCurrency: "usd",
		APIKey:     "demo-key",
	})
}

func TestCoinGecko_FetchPrices(t *testing.T) {
	feed := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "btc,eth,nope", r.URL.Query().Get("symbols"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","current_price":64123.45},
			{"id":"ethereum","symbol":"ETH","current_price":3150.123456789012},
			{"id":"bitcoin-wrapped-clone","symbol":"btc","current_price":1.0},
			{"id":"dead","symbol":"dead","current_price":null}
		]`))
	})

	prices, err := feed.FetchPrices(context.Background(), []string{"btc", "eth", "nope"})
	require.NoError(t, err)

	require.Len(t, prices, 2)
	assert.Equal(t, "64123.45", prices["btc"].String())
	assert.Equal(t, "3150.123456789012", prices["eth"].String())
}

func TestCoinGecko_Non200(t *testing.T) {
	feed := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := feed.FetchPrices(context.Background(), []string{"btc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCoinGecko_BadJSON(t *testing.T) {
	feed := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":`))
	})

	_, err := feed.FetchPrices(context.Background(), []string{"btc"})
	assert.Error(t, err)
}

func TestCoinGecko_NoSymbolsSkipsRequest(t *testing.T) {
	called := false
	feed := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	prices, err := feed.FetchPrices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
	assert.False(t, called)
}

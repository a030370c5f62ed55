package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coin-ledger/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestCachedPriceProvider_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	feed := mocks.NewMockPriceFeed(ctrl)
	cache := mocks.NewMockPriceCache(ctrl)
	p := NewCachedPriceProvider(feed, cache, time.Minute, zerolog.Nop())

	cache.EXPECT().GetMany(gomock.Any(), []string{"btc", "eth"}).
		Return(map[string]decimal.Decimal{"btc": dec("60000"), "eth": dec("3000")}, nil)
	// Feed must not be called.

	prices := p.CurrentPrices(context.Background(), []string{"ETH", "btc", "btc"})
	assert.Equal(t, "60000", prices["btc"].String())
	assert.Equal(t, "3000", prices["eth"].String())
}

func TestCachedPriceProvider_FetchesMissesAndCaches(t *testing.T) {
	ctrl := gomock.NewController(t)
	feed := mocks.NewMockPriceFeed(ctrl)
	cache := mocks.NewMockPriceCache(ctrl)
	p := NewCachedPriceProvider(feed, cache, time.Minute, zerolog.Nop())

	cache.EXPECT().GetMany(gomock.Any(), []string{"btc", "doge"}).
		Return(map[string]decimal.Decimal{"btc": dec("60000")}, nil)
	feed.EXPECT().FetchPrices(gomock.Any(), []string{"doge"}).
		Return(map[string]decimal.Decimal{"doge": dec("0.1")}, nil)
	cache.EXPECT().SetMany(gomock.Any(), map[string]decimal.Decimal{"doge": dec("0.1")}, time.Minute).Return(nil)

	prices := p.CurrentPrices(context.Background(), []string{"btc", "doge"})
	assert.Len(t, prices, 2)
	assert.Equal(t, "0.1", prices["doge"].String())
}

func TestCachedPriceProvider_FeedDownDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	feed := mocks.NewMockPriceFeed(ctrl)
	cache := mocks.NewMockPriceCache(ctrl)
	p := NewCachedPriceProvider(feed, cache, time.Minute, zerolog.Nop())

	cache.EXPECT().GetMany(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
	feed.EXPECT().FetchPrices(gomock.Any(), []string{"btc"}).Return(nil, errors.New("502"))

	prices := p.CurrentPrices(context.Background(), []string{"btc"})
	assert.Empty(t, prices)
}

func TestCachedPriceProvider_NoCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	feed := mocks.NewMockPriceFeed(ctrl)
	p := NewCachedPriceProvider(feed, nil, time.Minute, zerolog.Nop())

	feed.EXPECT().FetchPrices(gomock.Any(), []string{"btc"}).
		Return(map[string]decimal.Decimal{"btc": dec("1")}, nil)

	assert.Len(t, p.CurrentPrices(context.Background(), []string{"btc"}), 1)
	assert.Empty(t, p.CurrentPrices(context.Background(), nil))
}

func TestCachedPriceProvider_ConcurrentMissesShareOneFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	feed := mocks.NewMockPriceFeed(ctrl)
	p := NewCachedPriceProvider(feed, nil, time.Minute, zerolog.Nop())

	release := make(chan struct{})
	feed.EXPECT().FetchPrices(gomock.Any(), []string{"btc"}).DoAndReturn(
		func(context.Context, []string) (map[string]decimal.Decimal, error) {
			<-release
			return map[string]decimal.Decimal{"btc": dec("1")}, nil
		}).MinTimes(1).MaxTimes(2)

	var wg sync.WaitGroup
	results := make([]map[string]decimal.Decimal, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.CurrentPrices(context.Background(), []string{"btc"})
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "1", r["btc"].String())
	}
}

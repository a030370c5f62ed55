package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceCache_SetAndGetMany(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewPriceCache(client, "usd")
	ctx := context.Background()

	got, err := cache.GetMany(ctx, []string{"btc", "eth"})
	require.NoError(t, err)
	assert.Empty(t, got)

	err = cache.SetMany(ctx, map[string]decimal.Decimal{
		"btc": decimal.RequireFromString("64123.45"),
		"eth": decimal.RequireFromString("3150.1"),
	}, time.Minute)
	require.NoError(t, err)

	got, err = cache.GetMany(ctx, []string{"btc", "doge", "eth"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "64123.45", got["btc"].String())
	assert.Equal(t, "3150.1", got["eth"].String())

	v, err := s.Get("price:usd:btc")
	require.NoError(t, err)
	assert.Equal(t, "64123.45", v)
}

func TestPriceCache_Expiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewPriceCache(client, "usd")
	ctx := context.Background()

	require.NoError(t, cache.SetMany(ctx, map[string]decimal.Decimal{"btc": decimal.NewFromInt(1)}, time.Second))
	s.FastForward(2 * time.Second)

	got, err := cache.GetMany(ctx, []string{"btc"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPriceCache_CorruptEntryIsMiss(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewPriceCache(client, "usd")

	require.NoError(t, s.Set("price:usd:btc", "not-a-number"))

	got, err := cache.GetMany(context.Background(), []string{"btc"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPriceCache_EmptyInput(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewPriceCache(client, "usd")

	got, err := cache.GetMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, cache.SetMany(context.Background(), nil, time.Minute))
}

func TestPriceCache_RedisDown(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewPriceCache(client, "usd")
	s.Close()

	_, err := cache.GetMany(context.Background(), []string{"btc"})
	assert.Error(t, err)
}

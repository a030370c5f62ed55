package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// PriceCache implements ports.PriceCache. Prices are stored as decimal strings
// under one key per (quote currency, coin).
type PriceCache struct {
	client *goredis.Client
	prefix string
}

// NewPriceCache creates a price cache for quotes in vsCurrency.
func NewPriceCache(client *goredis.Client, vsCurrency string) *PriceCache {
	return &PriceCache{
		client: client,
		prefix: "price:" + vsCurrency + ":",
	}
}

// GetMany returns the cached prices among symbols. Misses are absent from the map.
func (c *PriceCache) GetMany(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	keys := make([]string, len(symbols))
	for i, s := range symbols {
		keys[i] = c.prefix + s
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis price mget: %w", err)
	}

	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			// A corrupt entry counts as a miss and is refreshed by the next fetch.
			continue
		}
		out[symbols[i]] = price
	}
	return out, nil
}

// SetMany stores prices with the given TTL in one round trip.
func (c *PriceCache) SetMany(ctx context.Context, prices map[string]decimal.Decimal, ttl time.Duration) error {
	if len(prices) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for sym, price := range prices {
			p.Set(ctx, c.prefix+sym, price.String(), ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis price set: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// CachedPriceProvider implements ports.PriceProvider on top of a price feed
// with a shared cache in front of it. Concurrent requests for the same set of
// missing symbols share one feed call.
type CachedPriceProvider struct {
	feed  ports.PriceFeed
	cache ports.PriceCache
	ttl   time.Duration
	group singleflight.Group
	log   zerolog.Logger
}

// NewCachedPriceProvider creates a price provider. cache may be nil.
func NewCachedPriceProvider(feed ports.PriceFeed, cache ports.PriceCache, ttl time.Duration, log zerolog.Logger) *CachedPriceProvider {
	return &CachedPriceProvider{feed: feed, cache: cache, ttl: ttl, log: log}
}

// CurrentPrices returns the prices it could find. Failures are logged and
// the affected symbols are simply absent.
func (p *CachedPriceProvider) CurrentPrices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	symbols = uniqueSymbols(symbols)
	out := make(map[string]decimal.Decimal, len(symbols))
	if len(symbols) == 0 {
		return out
	}

	if p.cache != nil {
		cached, err := p.cache.GetMany(ctx, symbols)
		if err != nil {
			p.log.Warn().Err(err).Msg("price cache read failed, falling through to feed")
		}
		for sym, price := range cached {
			out[sym] = price
		}
	}

	missing := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if _, ok := out[sym]; !ok {
			missing = append(missing, sym)
		}
	}
	if len(missing) == 0 {
		return out
	}

	v, err, _ := p.group.Do(strings.Join(missing, ","), func() (any, error) {
		// Shared by every waiter, so it must outlive the first caller.
		fetchCtx := context.WithoutCancel(ctx)
		fetched, err := p.feed.FetchPrices(fetchCtx, missing)
		if err != nil {
			return nil, err
		}
		if p.cache != nil && len(fetched) > 0 {
			if err := p.cache.SetMany(fetchCtx, fetched, p.ttl); err != nil {
				p.log.Warn().Err(err).Msg("price cache write failed")
			}
		}
		return fetched, nil
	})
	if err != nil {
		p.log.Warn().Err(err).Strs("symbols", missing).Msg("price feed unavailable, prices unknown")
		return out
	}

	for sym, price := range v.(map[string]decimal.Decimal) {
		out[sym] = price
	}
	return out
}

func uniqueSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = domain.NormalizeSymbol(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

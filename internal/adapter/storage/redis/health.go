package redis

import (
	"context"

	"coin-ledger/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

// NewHealthCheck reports Redis as the "redis" dependency. Redis backs the
// idempotency keys, the price cache and the rate limiter, so losing it
// degrades but does not stop the ledger.
func NewHealthCheck(client goredis.UniversalClient) ports.HealthChecker {
	return ports.PingFunc{
		Dependency: "redis",
		Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

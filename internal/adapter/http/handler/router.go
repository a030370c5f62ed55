package handler

import (
	"coin-ledger/internal/adapter/http/middleware"
	redisStore "coin-ledger/internal/adapter/storage/redis"
	"coin-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20 // 1 MB

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc      ports.LedgerService
	WalletSvc      ports.WalletService
	PortfolioSvc   ports.PortfolioService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	VsCurrency     string
	Mode           string // gin mode; empty keeps the current one
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	}
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep, pings every store)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()

	// Rate limiter for a group if the store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.WalletSvc)
	txHandler := NewTransactionHandler(deps.LedgerSvc, deps.PortfolioSvc)
	portfolioHandler := NewPortfolioHandler(deps.PortfolioSvc, deps.VsCurrency)

	v1 := r.Group("/api/v1")

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("", rl("wallets"), walletHandler.List)
		wallets.POST("", rl("wallets"), walletHandler.Create)
		wallets.GET("/:walletId", rl("wallets"), walletHandler.Get)
		wallets.PATCH("/:walletId", rl("wallets"), walletHandler.Rename)
		wallets.DELETE("/:walletId", rl("wallets"), walletHandler.Delete)
		wallets.GET("/:walletId/summary", rl("ledger_read"), portfolioHandler.Summary)
	}

	txs := wallets.Group("/:walletId/transactions")
	{
		txs.GET("", rl("ledger_read"), txHandler.List)
		txs.POST("", rl("ledger_write"), txHandler.Create)
		txs.GET("/paginated", rl("ledger_read"), txHandler.ListPage)
		txs.GET("/grouped", rl("ledger_read"), portfolioHandler.Positions)
		txs.GET("/coins/:coinSymbol", rl("ledger_read"), portfolioHandler.CoinTransactions)
		txs.GET("/coins/:coinSymbol/stats", rl("ledger_read"), portfolioHandler.CoinStats)
		txs.GET("/coins/:coinSymbol/chart", rl("ledger_read"), portfolioHandler.CoinChart)
		txs.GET("/:transactionId", rl("ledger_read"), txHandler.Get)
		txs.PATCH("/:transactionId", rl("ledger_write"), txHandler.Update)
		txs.DELETE("/:transactionId", rl("ledger_write"), txHandler.Delete)
	}

	return r
}

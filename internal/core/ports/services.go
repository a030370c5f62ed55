package ports

import (
	"context"
	"time"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// IdempotencyCache remembers mutation results per Idempotency-Key. Claim
// marks a key as in flight so concurrent first attempts apply at most once.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// PriceFeed is the external market data source. Symbols it does not know are
// simply missing from the result.
type PriceFeed interface {
	FetchPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// PriceCache keeps recently fetched prices.
type PriceCache interface {
	GetMany(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
	SetMany(ctx context.Context, prices map[string]decimal.Decimal, ttl time.Duration) error
}

// PriceProvider answers current prices. It never fails: anything it cannot
// price is absent from the map and treated as unknown.
type PriceProvider interface {
	CurrentPrices(ctx context.Context, symbols []string) map[string]decimal.Decimal
}

// EventPublisher ships ledger events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent) error
	Close() error
}

// AuditService records audited actions without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// LedgerService is the mutation orchestrator: the only write path for ledger entries.
type LedgerService interface {
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*MutationResult, error)
	UpdateTransaction(ctx context.Context, req UpdateTransactionRequest) (*MutationResult, error)
	DeleteTransaction(ctx context.Context, userID, walletID, transactionID uuid.UUID) (*MutationResult, error)
}

// CreateTransactionRequest holds input for a new ledger entry.
// OccurredAt nil means now.
type CreateTransactionRequest struct {
	UserID         uuid.UUID
	WalletID       uuid.UUID
	CoinSymbol     string
	Side           domain.Side
	Quantity       decimal.Decimal
	Price          decimal.Decimal
	OccurredAt     *time.Time
	IdempotencyKey string
}

// UpdateTransactionRequest holds a partial edit of an existing entry.
type UpdateTransactionRequest struct {
	UserID        uuid.UUID
	WalletID      uuid.UUID
	TransactionID uuid.UUID
	Patch         domain.TransactionPatch
}

// MutationResult is returned by every successful ledger mutation.
type MutationResult struct {
	Transaction domain.Transaction `json:"transaction"`
	Deleted     bool               `json:"deleted"`
	Position    ledger.Projection  `json:"position"`
	Wallet      domain.WalletStats `json:"wallet"`
}

// WalletService manages the wallets of one owner.
type WalletService interface {
	Create(ctx context.Context, userID uuid.UUID, name string) (*domain.Wallet, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Wallet, error)
	Rename(ctx context.Context, userID, id uuid.UUID, name string) (*domain.Wallet, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// PortfolioService answers read-only questions about a wallet's ledger.
type PortfolioService interface {
	ListTransactions(ctx context.Context, userID, walletID uuid.UUID) ([]domain.Transaction, error)
	ListTransactionsPage(ctx context.Context, userID uuid.UUID, params TransactionListParams) ([]domain.Transaction, int64, error)
	ListCoinTransactions(ctx context.Context, userID, walletID uuid.UUID, coinSymbol string) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, walletID, id uuid.UUID) (*domain.Transaction, error)
	Positions(ctx context.Context, userID, walletID uuid.UUID) ([]ledger.Position, error)
	CoinStats(ctx context.Context, userID, walletID uuid.UUID, coinSymbol string) (*ledger.Position, error)
	CoinChart(ctx context.Context, userID, walletID uuid.UUID, coinSymbol string, from time.Time) (*CoinChart, error)
	Summary(ctx context.Context, userID, walletID uuid.UUID) (*ledger.Summary, error)
}

// CoinChart is the running quantity of one coin over time.
type CoinChart struct {
	CoinSymbol      string
	InitialQuantity decimal.Decimal
	Points          []ledger.Point
}

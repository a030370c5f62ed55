package ports

import (
	"context"
	"errors"

	"coin-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateWalletName is returned by WalletRepository when an owner
// already has a wallet with the requested name.
var ErrDuplicateWalletName = errors.New("duplicate wallet name")

// WalletRepository defines persistence operations for wallets.
// Lookups are scoped by owner; a wallet of another user reads as absent (nil, nil).
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Wallet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	Rename(ctx context.Context, userID, id uuid.UUID, name string) (*domain.Wallet, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) (*domain.Wallet, error)
	UpdateStats(ctx context.Context, tx pgx.Tx, id uuid.UUID, stats domain.WalletStats) error
}

// TransactionRepository is the ledger entry store.
// Chronological reads are ordered by (occurred_at, id) ascending, the same
// order domain.SortChronological produces.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	Update(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	Delete(ctx context.Context, tx pgx.Tx, walletID, id uuid.UUID) error
	GetByIDTx(ctx context.Context, tx pgx.Tx, walletID, id uuid.UUID) (*domain.Transaction, error)
	// ListByCoinTx returns the chronological history of one coin.
	ListByCoinTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, coinSymbol string) ([]domain.Transaction, error)
	// ListByWalletTx returns every transaction of the wallet, chronologically.
	ListByWalletTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) ([]domain.Transaction, error)

	// Reads outside a mutation
	GetByID(ctx context.Context, walletID, id uuid.UUID) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error) // newest first
	ListPage(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	ListByCoin(ctx context.Context, walletID uuid.UUID, coinSymbol string) ([]domain.Transaction, error)
}

// TransactionListParams holds pagination for listing a wallet's transactions.
type TransactionListParams struct {
	WalletID uuid.UUID
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (Page-1)*PageSize well inside int range for OFFSET.
	MaxPage = 1_000_000
)

// Normalize applies the default page (1) and size, and caps both.
func (p TransactionListParams) Normalize() TransactionListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

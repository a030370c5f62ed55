package postgres

import (
	"context"
	"errors"
	"fmt"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

const walletColumns = `id, user_id, name, total_invested::text, total_realized_pnl::text, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. A duplicate (user_id, name) yields ports.ErrDuplicateWalletName.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, name, total_invested, total_realized_pnl, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.UserID, w.Name, w.TotalInvested.String(), w.TotalRealizedPnL.String(),
		w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrDuplicateWalletName
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet of the given owner (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 AND user_id = $2`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, fmt.Errorf("get wallet by id: %w", err)
	}
	return w, nil
}

// ListByUser returns the owner's wallets, oldest first.
func (r *WalletRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	wallets := []domain.Wallet{}
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return wallets, nil
}

// Rename changes a wallet's name and returns the updated row, or nil when the
// owner has no such wallet.
func (r *WalletRepo) Rename(ctx context.Context, userID, id uuid.UUID, name string) (*domain.Wallet, error) {
	query := `UPDATE wallets SET name = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3
		RETURNING ` + walletColumns

	w, err := scanWallet(r.pool.QueryRow(ctx, query, name, id, userID))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ports.ErrDuplicateWalletName
		}
		return nil, fmt.Errorf("rename wallet: %w", err)
	}
	return w, nil
}

// Delete removes a wallet and, by cascade, its transactions.
func (r *WalletRepo) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM wallets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete wallet: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByIDForUpdate fetches a wallet with pessimistic locking.
// This MUST be called within a transaction; the lock serializes ledger
// mutations of the wallet until commit or rollback.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 AND user_id = $2 FOR UPDATE`

	w, err := scanWallet(tx.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}
	return w, nil
}

// UpdateStats stores the derived wallet totals within a transaction.
func (r *WalletRepo) UpdateStats(ctx context.Context, tx pgx.Tx, id uuid.UUID, stats domain.WalletStats) error {
	query := `UPDATE wallets SET total_invested = $1, total_realized_pnl = $2, updated_at = NOW() WHERE id = $3`

	tag, err := tx.Exec(ctx, query, stats.TotalInvested.String(), stats.TotalRealizedPnL.String(), id)
	if err != nil {
		return fmt.Errorf("update wallet stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

// scanWallet reads one wallet row. pgx.ErrNoRows becomes (nil, nil).
func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var invested, realized string
	w := &domain.Wallet{}
	err := row.Scan(&w.ID, &w.UserID, &w.Name, &invested, &realized, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if w.TotalInvested, err = parseNumeric("total_invested", invested); err != nil {
		return nil, err
	}
	if w.TotalRealizedPnL, err = parseNumeric("total_realized_pnl", realized); err != nil {
		return nil, err
	}
	return w, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

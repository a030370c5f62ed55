package postgres

import (
	"context"
	"errors"
	"fmt"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const txColumns = `id, wallet_id, coin_symbol, side, quantity::text, price::text, occurred_at, created_at, updated_at`

// Chronological order of the ledger. Must match domain.Before.
const orderChronological = ` ORDER BY occurred_at ASC, id ASC`

const orderNewestFirst = ` ORDER BY occurred_at DESC, id DESC`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new ledger entry within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, wallet_id, coin_symbol, side, quantity, price, occurred_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.WalletID, t.CoinSymbol, string(t.Side),
		t.Quantity.String(), t.Price.String(),
		t.OccurredAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// Update rewrites the economic fields of an entry within a database transaction.
func (r *TransactionRepo) Update(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `UPDATE transactions SET side = $1, quantity = $2, price = $3, occurred_at = $4, updated_at = $5
		WHERE id = $6 AND wallet_id = $7`

	tag, err := tx.Exec(ctx, query,
		string(t.Side), t.Quantity.String(), t.Price.String(), t.OccurredAt, t.UpdatedAt,
		t.ID, t.WalletID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", t.ID)
	}
	return nil
}

// Delete removes an entry within a database transaction.
func (r *TransactionRepo) Delete(ctx context.Context, tx pgx.Tx, walletID, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND wallet_id = $2`, id, walletID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// GetByIDTx fetches one entry inside a transaction.
func (r *TransactionRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, walletID, id uuid.UUID) (*domain.Transaction, error) {
	return r.getByID(ctx, tx, walletID, id)
}

// GetByID fetches one entry of a wallet. Returns nil, nil when absent.
func (r *TransactionRepo) GetByID(ctx context.Context, walletID, id uuid.UUID) (*domain.Transaction, error) {
	return r.getByID(ctx, r.pool, walletID, id)
}

func (r *TransactionRepo) getByID(ctx context.Context, q querier, walletID, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE id = $1 AND wallet_id = $2`

	t, err := scanTransaction(q.QueryRow(ctx, query, id, walletID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// ListByCoinTx returns the chronological history of one coin inside a transaction.
func (r *TransactionRepo) ListByCoinTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, coinSymbol string) ([]domain.Transaction, error) {
	return r.listByCoin(ctx, tx, walletID, coinSymbol)
}

// ListByCoin returns the chronological history of one coin.
func (r *TransactionRepo) ListByCoin(ctx context.Context, walletID uuid.UUID, coinSymbol string) ([]domain.Transaction, error) {
	return r.listByCoin(ctx, r.pool, walletID, coinSymbol)
}

func (r *TransactionRepo) listByCoin(ctx context.Context, q querier, walletID uuid.UUID, coinSymbol string) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE wallet_id = $1 AND coin_symbol = $2` + orderChronological
	return queryTransactions(ctx, q, "list coin transactions", query, walletID, coinSymbol)
}

// ListByWalletTx returns every entry of the wallet chronologically, inside a transaction.
func (r *TransactionRepo) ListByWalletTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE wallet_id = $1` + orderChronological
	return queryTransactions(ctx, tx, "list wallet transactions", query, walletID)
}

// ListByWallet returns every entry of the wallet, newest first.
func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE wallet_id = $1` + orderNewestFirst
	return queryTransactions(ctx, r.pool, "list wallet transactions", query, walletID)
}

// ListPage returns one page of the wallet's entries, newest first, and the total count.
func (r *TransactionRepo) ListPage(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE wallet_id = $1`, params.WalletID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	query := `SELECT ` + txColumns + ` FROM transactions WHERE wallet_id = $1` + orderNewestFirst + ` LIMIT $2 OFFSET $3`
	txns, err := queryTransactions(ctx, r.pool, "list transactions page", query, params.WalletID, params.PageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func queryTransactions(ctx context.Context, q querier, op, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var side, qty, price string
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.WalletID, &t.CoinSymbol, &side, &qty, &price,
		&t.OccurredAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Side = domain.Side(side)
	if t.Quantity, err = parseNumeric("quantity", qty); err != nil {
		return nil, err
	}
	if t.Price, err = parseNumeric("price", price); err != nil {
		return nil, err
	}
	t.OccurredAt = t.OccurredAt.UTC()
	return t, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Transactor opens the transactions ledger mutations run in. Each one is
// serialized per wallet by the SELECT ... FOR UPDATE in WalletRepo.
type Transactor struct {
	pool Pool
}

func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin uses READ COMMITTED; the wallet row lock, not the isolation level,
// is what keeps concurrent mutations of one wallet from interleaving.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger transaction: %w", err)
	}
	return tx, nil
}

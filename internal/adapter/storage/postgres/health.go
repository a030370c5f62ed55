package postgres

import (
	"context"
	"errors"
	"fmt"
)

const schemaReadyQuery = `SELECT to_regclass('transactions') IS NOT NULL AND to_regclass('wallets') IS NOT NULL`

var errSchemaMissing = errors.New("ledger tables missing; start with database.migrate=true")

// HealthCheck reports PostgreSQL as healthy once it answers and the ledger
// schema is in place.
type HealthCheck struct {
	pool Pool
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	var ready bool
	if err := h.pool.QueryRow(ctx, schemaReadyQuery).Scan(&ready); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	if !ready {
		return errSchemaMissing
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "postgresql"
}

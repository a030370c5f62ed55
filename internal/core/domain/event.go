package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEventType names the mutation that produced a LedgerEvent.
type LedgerEventType string

const (
	LedgerEventTransactionCreated LedgerEventType = "transaction.created"
	LedgerEventTransactionUpdated LedgerEventType = "transaction.updated"
	LedgerEventTransactionDeleted LedgerEventType = "transaction.deleted"
)

// LedgerEvent is published after a ledger mutation commits.
type LedgerEvent struct {
	Type             LedgerEventType `json:"type"`
	WalletID         uuid.UUID       `json:"wallet_id"`
	CoinSymbol       string          `json:"coin_symbol"`
	TransactionID    uuid.UUID       `json:"transaction_id"`
	OccurredAt       time.Time       `json:"occurred_at"`
	TotalInvested    decimal.Decimal `json:"total_invested"`
	TotalRealizedPnL decimal.Decimal `json:"total_realized_pnl"`
	At               time.Time       `json:"at"`
}

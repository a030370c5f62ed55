package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxWalletNameLength is the longest wallet name accepted, in characters.
const MaxWalletNameLength = 20

var (
	ErrEmptyWalletName   = errors.New("wallet name cannot be empty")
	ErrWalletNameTooLong = errors.New("wallet name must be at most 20 characters")
)

// Wallet groups the ledger entries of one owner.
// TotalInvested and TotalRealizedPnL are a cache derived from the wallet's
// transactions; they are rewritten in the same database transaction as every
// ledger write and never authored directly.
type Wallet struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Name             string          `json:"name"`
	TotalInvested    decimal.Decimal `json:"total_invested"`
	TotalRealizedPnL decimal.Decimal `json:"total_realized_pnl"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OwnedBy reports whether userID owns the wallet.
func (w *Wallet) OwnedBy(userID uuid.UUID) bool {
	return w.UserID == userID
}

// WalletStats is the derived aggregate cached on the wallet row.
type WalletStats struct {
	TotalInvested    decimal.Decimal `json:"total_invested"`
	TotalRealizedPnL decimal.Decimal `json:"total_realized_pnl"`
}

// ParseWalletName trims and validates a wallet name.
func ParseWalletName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrEmptyWalletName
	}
	if utf8.RuneCountInString(name) > MaxWalletNameLength {
		return "", ErrWalletNameTooLong
	}
	return name, nil
}

package domain

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side tells whether a ledger entry adds to or removes from a holding.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is one of the known sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// ParseSide normalizes user input into a Side.
func ParseSide(raw string) (Side, error) {
	s := Side(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("buyOrSell must be %q or %q", SideBuy, SideSell)
	}
	return s, nil
}

// Transaction is one buy or sell ledger entry of a wallet.
// OccurredAt is the economic event time; CreatedAt is when the row was written.
type Transaction struct {
	ID         uuid.UUID       `json:"id"`
	WalletID   uuid.UUID       `json:"wallet_id"`
	CoinSymbol string          `json:"coin_symbol"`
	Side       Side            `json:"buy_or_sell"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	OccurredAt time.Time       `json:"occurred_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Total is the notional value of the entry (price * quantity).
func (t *Transaction) Total() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}

// Delta is the signed quantity change the entry applies to a holding.
func (t *Transaction) Delta() decimal.Decimal {
	if t.Side == SideSell {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

// Before is the chronological order of the ledger: occurred_at ascending,
// ties broken by id. Storage reads must use the same order.
func Before(a, b *Transaction) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.Before(b.OccurredAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// SortChronological sorts txs in place by Before.
func SortChronological(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return Before(&txs[i], &txs[j])
	})
}

// ---- Input normalization ----

var (
	ErrEmptyCoinSymbol      = errors.New("coinSymbol is required")
	ErrInvalidCoinSymbol    = errors.New("coinSymbol may only contain letters, digits, '.', '_' or '-' (max 20)")
	ErrNonPositiveQuantity  = errors.New("quantity must be positive")
	ErrNonPositivePrice     = errors.New("price must be positive")
	ErrQuantityOutOfRange   = fmt.Errorf("quantity must have at most %d integer digits and %d decimal places", MaxAmountIntegerDigits, MaxAmountFractionDigits)
	ErrPriceOutOfRange      = fmt.Errorf("price must have at most %d integer digits and %d decimal places", MaxAmountIntegerDigits, MaxAmountFractionDigits)
	ErrOccurredInFuture     = errors.New("transaction date cannot be in the future")
	ErrEmptyTransactionEdit = errors.New("no fields provided for update")
)

// Bounds on stored quantities and prices.
const (
	MaxAmountIntegerDigits  = 20
	MaxAmountFractionDigits = 18

	// Coefficients wider than this cannot fit the bounds above even with
	// trailing zeros, so they are rejected before any rescaling.
	maxAmountCoefficientBits = 256
)

// AmountInRange reports whether d fits MaxAmountIntegerDigits and
// MaxAmountFractionDigits. Trailing fractional zeros are ignored.
func AmountInRange(d decimal.Decimal) bool {
	if d.Coefficient().BitLen() > maxAmountCoefficientBits {
		return false
	}
	exp := int(d.Exponent())
	if exp > MaxAmountIntegerDigits || exp < -(MaxAmountFractionDigits+80) {
		return false
	}
	if d.NumDigits()+exp > MaxAmountIntegerDigits {
		return false
	}
	if exp < -MaxAmountFractionDigits && !d.Equal(d.Truncate(MaxAmountFractionDigits)) {
		return false
	}
	return true
}

var coinSymbolRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,19}$`)

// NormalizeSymbol returns the canonical (trimmed, lower-case) coin symbol.
func NormalizeSymbol(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseCoinSymbol normalizes and validates a coin symbol.
func ParseCoinSymbol(raw string) (string, error) {
	s := NormalizeSymbol(raw)
	if s == "" {
		return "", ErrEmptyCoinSymbol
	}
	if !coinSymbolRe.MatchString(s) {
		return "", ErrInvalidCoinSymbol
	}
	return s, nil
}

// NormalizeTime converts t to UTC at the microsecond precision the store keeps,
// so a validated ordering is the ordering read back later.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// TransactionPatch is a typed update request. Nil fields keep their current value.
type TransactionPatch struct {
	Side       *Side
	Quantity   *decimal.Decimal
	Price      *decimal.Decimal
	OccurredAt *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Side == nil && p.Quantity == nil && p.Price == nil && p.OccurredAt == nil
}

// Apply returns t with the patch merged in. Identity, wallet and coin never change.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Side != nil {
		t.Side = *p.Side
	}
	if p.Quantity != nil {
		t.Quantity = *p.Quantity
	}
	if p.Price != nil {
		t.Price = *p.Price
	}
	if p.OccurredAt != nil {
		t.OccurredAt = NormalizeTime(*p.OccurredAt)
	}
	return t
}

// CheckFields validates the economic fields of a complete entry.
// now and tolerance bound how far in the future OccurredAt may lie.
func CheckFields(t *Transaction, now time.Time, tolerance time.Duration) error {
	if !t.Side.Valid() {
		return fmt.Errorf("buyOrSell must be %q or %q", SideBuy, SideSell)
	}
	if !t.Quantity.IsPositive() {
		return ErrNonPositiveQuantity
	}
	if !t.Price.IsPositive() {
		return ErrNonPositivePrice
	}
	if !AmountInRange(t.Quantity) {
		return ErrQuantityOutOfRange
	}
	if !AmountInRange(t.Price) {
		return ErrPriceOutOfRange
	}
	if t.OccurredAt.After(now.Add(tolerance)) {
		return ErrOccurredInFuture
	}
	return nil
}

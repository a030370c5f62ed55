package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"coin-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MutationKind is the shape of a proposed ledger change.
type MutationKind int

const (
	Insert MutationKind = iota
	Replace
	Remove
)

func (k MutationKind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Replace:
		return "replace"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("MutationKind(%d)", int(k))
	}
}

// Mutation is a proposed change to the history of one (wallet, coin) pair.
// Candidate is used by Insert and Replace, TargetID by Replace and Remove.
type Mutation struct {
	Kind      MutationKind
	Candidate domain.Transaction
	TargetID  uuid.UUID
}

// ErrUnknownTarget is returned when a Replace or Remove names a transaction
// that is not part of the history.
var ErrUnknownTarget = errors.New("ledger: target transaction not in history")

// NegativeBalanceError reports the first point at which a simulated history
// would hold a negative quantity.
type NegativeBalanceError struct {
	CoinSymbol    string
	TransactionID uuid.UUID
	OccurredAt    time.Time
	Balance       decimal.Decimal
}

func (e *NegativeBalanceError) Error() string {
	return fmt.Sprintf("%s balance would drop to %s at %s",
		e.CoinSymbol, e.Balance.String(), e.OccurredAt.Format(time.RFC3339Nano))
}

// Simulate returns the chronological history that would result from applying m
// to history. history may be in any order and is not modified.
func Simulate(history []domain.Transaction, m Mutation) ([]domain.Transaction, error) {
	others := make([]domain.Transaction, 0, len(history)+1)
	found := false
	for _, tx := range history {
		if m.Kind != Insert && tx.ID == m.TargetID {
			found = true
			continue
		}
		others = append(others, tx)
	}
	if m.Kind != Insert && !found {
		return nil, ErrUnknownTarget
	}
	domain.SortChronological(others)
	if m.Kind == Remove {
		return others, nil
	}

	c := m.Candidate
	idx := sort.Search(len(others), func(i int) bool {
		return domain.Before(&c, &others[i])
	})
	others = append(others, domain.Transaction{})
	copy(others[idx+1:], others[idx:])
	others[idx] = c
	return others, nil
}

// CheckPrefixes walks the chronologically ordered txs and fails on the first
// prefix whose running quantity is negative.
func CheckPrefixes(txs []domain.Transaction) error {
	running := decimal.Zero
	for i := range txs {
		tx := &txs[i]
		running = running.Add(tx.Delta())
		if running.IsNegative() {
			return &NegativeBalanceError{
				CoinSymbol:    tx.CoinSymbol,
				TransactionID: tx.ID,
				OccurredAt:    tx.OccurredAt,
				Balance:       running,
			}
		}
	}
	return nil
}

// Validate decides whether m keeps every prefix of the (wallet, coin) history
// non-negative. history is the full current history of that pair.
func Validate(history []domain.Transaction, m Mutation) error {
	if m.Kind == Remove {
		target, ok := find(history, m.TargetID)
		if !ok {
			return ErrUnknownTarget
		}
		// Dropping a sell only raises later balances.
		if target.Side == domain.SideSell {
			return nil
		}
	}
	simulated, err := Simulate(history, m)
	if err != nil {
		return err
	}
	return CheckPrefixes(simulated)
}

func find(history []domain.Transaction, id uuid.UUID) (domain.Transaction, bool) {
	for _, tx := range history {
		if tx.ID == id {
			return tx, true
		}
	}
	return domain.Transaction{}, false
}

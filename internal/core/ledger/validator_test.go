package ledger

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"coin-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	history := scenarioB()
	buyT1, buyT2, sellT3 := history[0], history[1], history[2]

	movedSell := sellT3
	movedSell.OccurredAt = t1.Add(time.Minute) // only 2 held at that point
	bigSell := sellT3
	bigSell.Quantity = d("3.5")
	bigSell.OccurredAt = t3
	lateBuy := buyT1
	lateBuy.OccurredAt = t3.Add(time.Hour)
	sideFlip := buyT2
	sideFlip.Side = domain.SideSell

	tests := []struct {
		name        string
		mutation    Mutation
		wantBalance string // empty means admissible
		wantTxID    uuid.UUID
	}{
		{
			name:     "append buy",
			mutation: Mutation{Kind: Insert, Candidate: tx(domain.SideBuy, "1", "200", t3.Add(time.Hour))},
		},
		{
			name:     "sell whole holding at the end",
			mutation: Mutation{Kind: Insert, Candidate: tx(domain.SideSell, "1", "200", t3.Add(time.Hour))},
		},
		{
			name:        "scenario C: delete buy the later sell depends on",
			mutation:    Mutation{Kind: Remove, TargetID: buyT1.ID},
			wantBalance: "-1",
			wantTxID:    sellT3.ID,
		},
		{
			name:     "delete sell always admissible",
			mutation: Mutation{Kind: Remove, TargetID: sellT3.ID},
		},
		{
			name:     "delete buy still covered",
			mutation: Mutation{Kind: Remove, TargetID: buyT2.ID},
		},
		{
			name:        "oversell at the end",
			mutation:    Mutation{Kind: Insert, Candidate: tx(domain.SideSell, "1.00000001", "200", t3.Add(time.Hour))},
			wantBalance: "-0.00000001",
		},
		{
			name:     "move sell earlier but still covered",
			mutation: Mutation{Kind: Replace, TargetID: sellT3.ID, Candidate: movedSell},
		},
		{
			name:        "grow sell beyond holding",
			mutation:    Mutation{Kind: Replace, TargetID: sellT3.ID, Candidate: bigSell},
			wantBalance: "-0.5",
			wantTxID:    sellT3.ID,
		},
		{
			name:        "move first buy after the sell",
			mutation:    Mutation{Kind: Replace, TargetID: buyT1.ID, Candidate: lateBuy},
			wantBalance: "-1",
			wantTxID:    sellT3.ID,
		},
		{
			name:        "flip buy into sell",
			mutation:    Mutation{Kind: Replace, TargetID: buyT2.ID, Candidate: sideFlip},
			wantBalance: "-1",
			wantTxID:    sellT3.ID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(history, tt.mutation)
			if tt.wantBalance == "" {
				assert.NoError(t, err)
				return
			}

			var nb *NegativeBalanceError
			require.True(t, errors.As(err, &nb), "want NegativeBalanceError, got %v", err)
			assert.Equal(t, "btc", nb.CoinSymbol)
			assertDec(t, tt.wantBalance, nb.Balance)
			if tt.wantTxID != uuid.Nil {
				assert.Equal(t, tt.wantTxID, nb.TransactionID)
			}
		})
	}
}

func TestValidate_ScenarioD_InsertInThePast(t *testing.T) {
	early := tx(domain.SideSell, "0.5", "90", t0)

	err := Validate(scenarioB(), Mutation{Kind: Insert, Candidate: early})

	var nb *NegativeBalanceError
	require.ErrorAs(t, err, &nb)
	assertDec(t, "-0.5", nb.Balance)
	assert.Equal(t, early.ID, nb.TransactionID)
	assert.Equal(t, t0, nb.OccurredAt)

	// The final state alone would have been fine.
	final := Project(append(scenarioB(), early))
	assert.True(t, final.Quantity.IsPositive())
}

func TestValidate_UnknownTarget(t *testing.T) {
	err := Validate(scenarioB(), Mutation{Kind: Remove, TargetID: uuid.New()})
	assert.ErrorIs(t, err, ErrUnknownTarget)

	err = Validate(scenarioB(), Mutation{Kind: Replace, TargetID: uuid.New(), Candidate: tx(domain.SideBuy, "1", "1", t0)})
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestValidate_TieBreakByID(t *testing.T) {
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-ffff-ffff-ffff-fffffffffffe")

	buy := tx(domain.SideBuy, "1", "10", t1)
	buy.ID = low
	sell := tx(domain.SideSell, "1", "10", t1)
	sell.ID = high

	// Buy sorts first on the shared timestamp, so the sell is covered.
	assert.NoError(t, Validate([]domain.Transaction{buy}, Mutation{Kind: Insert, Candidate: sell}))

	buy.ID, sell.ID = high, low
	err := Validate([]domain.Transaction{buy}, Mutation{Kind: Insert, Candidate: sell})
	var nb *NegativeBalanceError
	assert.ErrorAs(t, err, &nb)
}

func TestSimulate_OrdersCandidate(t *testing.T) {
	history := scenarioB()
	mid := tx(domain.SideBuy, "1", "120", t1.Add(30*time.Minute))

	got, err := Simulate(history, Mutation{Kind: Insert, Candidate: mid})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, mid.ID, got[1].ID)
	assert.Len(t, history, 3, "history must not be modified")
}

func TestSimulate_ReplaceResorts(t *testing.T) {
	history := scenarioB()
	moved := history[0]
	moved.OccurredAt = t3.Add(time.Hour)

	got, err := Simulate(history, Mutation{Kind: Replace, TargetID: moved.ID, Candidate: moved})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, moved.ID, got[2].ID)
	assert.Equal(t, t1, history[0].OccurredAt)
}

// Every sequence accepted one insert at a time has non-negative prefixes.
func TestValidate_AcceptedSequencesNeverGoNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var history []domain.Transaction

	for i := 0; i < 500; i++ {
		side := domain.SideBuy
		if rng.Intn(2) == 0 {
			side = domain.SideSell
		}
		cand := domain.Transaction{
			ID:         uuid.New(),
			CoinSymbol: "btc",
			Side:       side,
			Quantity:   d("0.5").Mul(d("1").Add(d("0.5").Mul(dInt(rng.Intn(4))))),
			Price:      d("100"),
			OccurredAt: t0.Add(time.Duration(rng.Intn(200)) * time.Minute),
		}
		if Validate(history, Mutation{Kind: Insert, Candidate: cand}) == nil {
			history = append(history, cand)
		}
		if len(history) > 0 && rng.Intn(5) == 0 {
			victim := history[rng.Intn(len(history))]
			if Validate(history, Mutation{Kind: Remove, TargetID: victim.ID}) == nil {
				history = removeID(history, victim.ID)
			}
		}

		sorted := append([]domain.Transaction(nil), history...)
		domain.SortChronological(sorted)
		for _, p := range Timeline(sorted) {
			require.False(t, p.RunningQuantity.IsNegative(), "negative prefix after step %d", i)
		}
	}
}

func dInt(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

func removeID(txs []domain.Transaction, id uuid.UUID) []domain.Transaction {
	out := txs[:0]
	for _, t := range txs {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func TestMutationKind_String(t *testing.T) {
	assert.Equal(t, "insert", Insert.String())
	assert.Equal(t, "replace", Replace.String())
	assert.Equal(t, "remove", Remove.String())
	assert.Equal(t, "MutationKind(9)", MutationKind(9).String())
}

package ledger

import (
	"coin-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Position is a projected coin holding valued at the current market price.
type Position struct {
	Projection
	CurrentPrice  decimal.Decimal
	PriceKnown    bool
	CurrentValue  decimal.Decimal
	UnrealizedPnL decimal.Decimal
}

// Value prices p. A missing price is treated as zero and flagged.
// Non-positive holdings contribute nothing to value.
func Value(p Projection, prices map[string]decimal.Decimal) Position {
	price, ok := prices[p.CoinSymbol]
	pos := Position{
		Projection:    p,
		CurrentPrice:  price,
		PriceKnown:    ok,
		CurrentValue:  decimal.Zero,
		UnrealizedPnL: decimal.Zero,
	}
	if !ok {
		pos.CurrentPrice = decimal.Zero
	}
	if p.Quantity.IsPositive() {
		pos.CurrentValue = p.Quantity.Mul(pos.CurrentPrice)
		pos.UnrealizedPnL = pos.CurrentValue.Sub(p.Invested())
	}
	return pos
}

// Summary is the wallet-level view over all of its coins.
type Summary struct {
	TotalInvested    decimal.Decimal
	TotalRealizedPnL decimal.Decimal
	CurrentValue     decimal.Decimal
	UnrealizedPnL    decimal.Decimal
	TotalPnL         decimal.Decimal
	Positions        []Position
	MissingPrices    []string
}

// Aggregate values every projection and sums the wallet totals.
func Aggregate(projections []Projection, prices map[string]decimal.Decimal) Summary {
	s := Summary{
		TotalInvested:    decimal.Zero,
		TotalRealizedPnL: decimal.Zero,
		CurrentValue:     decimal.Zero,
		Positions:        make([]Position, 0, len(projections)),
	}
	for _, p := range projections {
		pos := Value(p, prices)
		s.Positions = append(s.Positions, pos)
		s.TotalInvested = s.TotalInvested.Add(p.Invested())
		s.TotalRealizedPnL = s.TotalRealizedPnL.Add(p.RealizedPnL)
		s.CurrentValue = s.CurrentValue.Add(pos.CurrentValue)
		if !pos.PriceKnown && p.Quantity.IsPositive() {
			s.MissingPrices = append(s.MissingPrices, p.CoinSymbol)
		}
	}
	s.UnrealizedPnL = s.CurrentValue.Sub(s.TotalInvested)
	s.TotalPnL = s.UnrealizedPnL.Add(s.TotalRealizedPnL)
	return s
}

// Stats returns the price-independent totals cached on the wallet row.
func Stats(projections []Projection) domain.WalletStats {
	st := domain.WalletStats{TotalInvested: decimal.Zero, TotalRealizedPnL: decimal.Zero}
	for _, p := range projections {
		st.TotalInvested = st.TotalInvested.Add(p.Invested())
		st.TotalRealizedPnL = st.TotalRealizedPnL.Add(p.RealizedPnL)
	}
	return st
}

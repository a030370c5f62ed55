// Package ledger is the chronological balance and cost-basis engine.
//
// Every function here is pure: it consumes transaction slices and returns
// derived figures. Storage, pricing and locking live in the callers.
package ledger

import (
	"context"
	"sort"
	"time"

	"coin-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// divPrecision is the number of fractional digits kept by divisions.
// Everything else is exact decimal arithmetic.
const divPrecision int32 = 24

// Projection is the state of one (wallet, coin) holding after replaying its
// transactions in chronological order.
type Projection struct {
	CoinSymbol       string
	Quantity         decimal.Decimal
	TotalBuyCost     decimal.Decimal
	TotalBuyQty      decimal.Decimal
	TotalSellRevenue decimal.Decimal
	TotalSellQty     decimal.Decimal
	RealizedPnL      decimal.Decimal
	Transactions     int
	FirstAt          time.Time
	LastAt           time.Time
}

// AvgBuyingPrice is the lifetime weighted average of all buys. Sells never move it.
func (p Projection) AvgBuyingPrice() decimal.Decimal {
	if !p.TotalBuyQty.IsPositive() {
		return decimal.Zero
	}
	return p.TotalBuyCost.DivRound(p.TotalBuyQty, divPrecision)
}

// Invested is the cost of the units still held, floored at zero.
func (p Projection) Invested() decimal.Decimal {
	if !p.Quantity.IsPositive() || !p.TotalBuyQty.IsPositive() {
		return decimal.Zero
	}
	// Multiply before dividing so a repeating average does not leak into the result.
	return p.Quantity.Mul(p.TotalBuyCost).DivRound(p.TotalBuyQty, divPrecision)
}

// Apply folds tx into the projection. Callers feed transactions in
// chronological order.
func (p *Projection) Apply(tx *domain.Transaction) {
	if p.Transactions == 0 {
		p.FirstAt = tx.OccurredAt
		if p.CoinSymbol == "" {
			p.CoinSymbol = tx.CoinSymbol
		}
	}
	p.Transactions++
	p.LastAt = tx.OccurredAt

	switch tx.Side {
	case domain.SideBuy:
		p.TotalBuyCost = p.TotalBuyCost.Add(tx.Total())
		p.TotalBuyQty = p.TotalBuyQty.Add(tx.Quantity)
		p.Quantity = p.Quantity.Add(tx.Quantity)
	case domain.SideSell:
		avg := p.AvgBuyingPrice()
		p.TotalSellRevenue = p.TotalSellRevenue.Add(tx.Total())
		p.TotalSellQty = p.TotalSellQty.Add(tx.Quantity)
		p.Quantity = p.Quantity.Sub(tx.Quantity)
		p.RealizedPnL = p.RealizedPnL.Add(tx.Price.Sub(avg).Mul(tx.Quantity))
	}
}

// Project replays txs, which must already be in chronological order.
func Project(txs []domain.Transaction) Projection {
	var p Projection
	for i := range txs {
		p.Apply(&txs[i])
	}
	return p
}

// Point is the running quantity right after one transaction.
type Point struct {
	TransactionID   uuid.UUID
	OccurredAt      time.Time
	Side            domain.Side
	Quantity        decimal.Decimal
	RunningQuantity decimal.Decimal
}

// Timeline returns one point per transaction of the chronologically ordered txs.
func Timeline(txs []domain.Transaction) []Point {
	points := make([]Point, 0, len(txs))
	running := decimal.Zero
	for i := range txs {
		tx := &txs[i]
		running = running.Add(tx.Delta())
		points = append(points, Point{
			TransactionID:   tx.ID,
			OccurredAt:      tx.OccurredAt,
			Side:            tx.Side,
			Quantity:        tx.Quantity,
			RunningQuantity: running,
		})
	}
	return points
}

// Chart splits the timeline of txs at from: the running quantity strictly
// before from, and the points at or after it. A zero from keeps every point.
func Chart(txs []domain.Transaction, from time.Time) (decimal.Decimal, []Point) {
	points := Timeline(txs)
	if from.IsZero() {
		return decimal.Zero, points
	}
	idx := sort.Search(len(points), func(i int) bool {
		return !points[i].OccurredAt.Before(from)
	})
	initial := decimal.Zero
	if idx > 0 {
		initial = points[idx-1].RunningQuantity
	}
	return initial, points[idx:]
}

// GroupByCoin splits txs per coin symbol and sorts each group chronologically.
// The input slice is not modified.
func GroupByCoin(txs []domain.Transaction) map[string][]domain.Transaction {
	groups := make(map[string][]domain.Transaction)
	for _, tx := range txs {
		groups[tx.CoinSymbol] = append(groups[tx.CoinSymbol], tx)
	}
	for _, g := range groups {
		domain.SortChronological(g)
	}
	return groups
}

// ProjectByCoin projects every coin of a wallet. Coins are independent so they
// are projected concurrently. The result is ordered by coin symbol.
func ProjectByCoin(ctx context.Context, txs []domain.Transaction) ([]Projection, error) {
	groups := GroupByCoin(txs)
	symbols := make([]string, 0, len(groups))
	for s := range groups {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	out := make([]Projection, len(symbols))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, sym := range symbols {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := Project(groups[sym])
			p.CoinSymbol = sym
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

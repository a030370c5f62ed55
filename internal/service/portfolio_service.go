package service

import (
	"context"
	"fmt"
	"time"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ledger"
	"coin-ledger/internal/core/ports"
	"coin-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// portfolioService implements ports.PortfolioService. It never writes.
type portfolioService struct {
	txRepo     ports.TransactionRepository
	walletRepo ports.WalletRepository
	prices     ports.PriceProvider
}

// NewPortfolioService creates a new portfolio service.
func NewPortfolioService(
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
	prices ports.PriceProvider,
) ports.PortfolioService {
	return &portfolioService{
		txRepo:     txRepo,
		walletRepo: walletRepo,
		prices:     prices,
	}
}

// ListTransactions returns every entry of the wallet, newest first.
func (s *portfolioService) ListTransactions(ctx context.Context, userID, walletID uuid.UUID) ([]domain.Transaction, error) {
	if err := s.ensureWallet(ctx, userID, walletID); err != nil {
		return nil, err
	}
	txs, err := s.txRepo.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return txs, nil
}

// ListTransactionsPage returns one page of entries, newest first, plus the total count.
func (s *portfolioService) ListTransactionsPage(ctx context.Context, userID uuid.UUID, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if err := s.ensureWallet(ctx, userID, params.WalletID); err != nil {
		return nil, 0, err
	}
	params = params.Normalize()
	txs, total, err := s.txRepo.ListPage(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return txs, total, nil
}

// ListCoinTransactions returns the chronological history of one coin.
func (s *portfolioService) ListCoinTransactions(ctx context.Context, userID, walletID uuid.UUID, coinSymbol string) ([]domain.Transaction, error) {
	coin, err := domain.ParseCoinSymbol(coinSymbol)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := s.ensureWallet(ctx, userID, walletID); err != nil {
		return nil, err
	}
	txs, err := s.txRepo.ListByCoin(ctx, walletID, coin)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return txs, nil
}

func (s *portfolioService) GetTransaction(ctx context.Context, userID, walletID, id uuid.UUID) (*domain.Transaction, error) {
	if err := s.ensureWallet(ctx, userID, walletID); err != nil {
		return nil, err
	}
	tx, err := s.txRepo.GetByID(ctx, walletID, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if tx == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	return tx, nil
}

// Positions values every coin of the wallet, ordered by symbol.
// Closed positions are kept since they still carry realized P&L.
func (s *portfolioService) Positions(ctx context.Context, userID, walletID uuid.UUID) ([]ledger.Position, error) {
	projections, err := s.project(ctx, userID, walletID)
	if err != nil {
		return nil, err
	}
	prices := s.prices.CurrentPrices(ctx, heldSymbols(projections))

	positions := make([]ledger.Position, 0, len(projections))
	for _, p := range projections {
		positions = append(positions, ledger.Value(p, prices))
	}
	return positions, nil
}

// CoinStats values a single coin of the wallet.
func (s *portfolioService) CoinStats(ctx context.Context, userID, walletID uuid.UUID, coinSymbol string) (*ledger.Position, error) {
	txs, err := s.ListCoinTransactions(ctx, userID, walletID, coinSymbol)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, apperror.ErrNotFound("coin")
	}

	p := ledger.Project(txs)
	var prices map[string]decimal.Decimal
	if p.Quantity.IsPositive() {
		prices = s.prices.CurrentPrices(ctx, []string{p.CoinSymbol})
	}
	pos := ledger.Value(p, prices)
	return &pos, nil
}

// CoinChart returns the running quantity of one coin from the given time on.
// A zero from returns the whole history.
func (s *portfolioService) CoinChart(ctx context.Context, userID, walletID uuid.UUID, coinSymbol string, from time.Time) (*ports.CoinChart, error) {
	txs, err := s.ListCoinTransactions(ctx, userID, walletID, coinSymbol)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() {
		from = domain.NormalizeTime(from)
	}
	initial, points := ledger.Chart(txs, from)
	return &ports.CoinChart{
		CoinSymbol:      domain.NormalizeSymbol(coinSymbol),
		InitialQuantity: initial,
		Points:          points,
	}, nil
}

// Summary aggregates the whole wallet at current prices.
func (s *portfolioService) Summary(ctx context.Context, userID, walletID uuid.UUID) (*ledger.Summary, error) {
	projections, err := s.project(ctx, userID, walletID)
	if err != nil {
		return nil, err
	}
	prices := s.prices.CurrentPrices(ctx, heldSymbols(projections))
	summary := ledger.Aggregate(projections, prices)
	return &summary, nil
}

func (s *portfolioService) project(ctx context.Context, userID, walletID uuid.UUID) ([]ledger.Projection, error) {
	txs, err := s.ListTransactions(ctx, userID, walletID)
	if err != nil {
		return nil, err
	}
	projections, err := ledger.ProjectByCoin(ctx, txs)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("project wallet: %w", err))
	}
	return projections, nil
}

// ensureWallet hides wallets of other owners behind NotFound.
func (s *portfolioService) ensureWallet(ctx context.Context, userID, walletID uuid.UUID) error {
	wallet, err := s.walletRepo.GetByID(ctx, userID, walletID)
	if err != nil {
		return apperror.InternalError(err)
	}
	if wallet == nil {
		return apperror.ErrNotFound("wallet")
	}
	return nil
}

// heldSymbols lists the coins that need a price: only open positions have value.
func heldSymbols(projections []ledger.Projection) []string {
	symbols := make([]string, 0, len(projections))
	for _, p := range projections {
		if p.Quantity.IsPositive() {
			symbols = append(symbols, p.CoinSymbol)
		}
	}
	return symbols
}

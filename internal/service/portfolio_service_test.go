package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ports"
	"coin-ledger/internal/core/ports/mocks"
	"coin-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type portfolioTestDeps struct {
	svc        ports.PortfolioService
	txRepo     *mocks.MockTransactionRepository
	walletRepo *mocks.MockWalletRepository
	prices     *mocks.MockPriceProvider
	userID     uuid.UUID
	walletID   uuid.UUID
}

func setupPortfolioService(t *testing.T) *portfolioTestDeps {
	ctrl := gomock.NewController(t)
	d := &portfolioTestDeps{
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		prices:     mocks.NewMockPriceProvider(ctrl),
		userID:     uuid.New(),
		walletID:   uuid.New(),
	}
	d.svc = NewPortfolioService(d.txRepo, d.walletRepo, d.prices)
	return d
}

func (d *portfolioTestDeps) expectWallet() {
	d.walletRepo.EXPECT().GetByID(gomock.Any(), d.userID, d.walletID).
		Return(&domain.Wallet{ID: d.walletID, UserID: d.userID}, nil)
}

func (d *portfolioTestDeps) coinEntry(coin string, side domain.Side, qty, price string, at time.Time) domain.Transaction {
	tx := entry(d.walletID, side, qty, price, at)
	tx.CoinSymbol = coin
	return tx
}

func TestPortfolioService_WalletOfOtherOwner(t *testing.T) {
	d := setupPortfolioService(t)
	d.walletRepo.EXPECT().GetByID(gomock.Any(), d.userID, d.walletID).Return(nil, nil).Times(3)

	_, err := d.svc.ListTransactions(context.Background(), d.userID, d.walletID)
	assertCode(t, err, apperror.CodeNotFound)
	_, err = d.svc.Summary(context.Background(), d.userID, d.walletID)
	assertCode(t, err, apperror.CodeNotFound)
	_, err = d.svc.CoinStats(context.Background(), d.userID, d.walletID, "btc")
	assertCode(t, err, apperror.CodeNotFound)
}

func TestPortfolioService_ListTransactionsPage_Normalizes(t *testing.T) {
	tests := []struct {
		name     string
		in       ports.TransactionListParams
		wantPage int
		wantSize int
	}{
		{"defaults", ports.TransactionListParams{}, 1, 10},
		{"clamped", ports.TransactionListParams{Page: 3, PageSize: 1000}, 3, 100},
		{"kept", ports.TransactionListParams{Page: 2, PageSize: 25}, 2, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupPortfolioService(t)
			d.expectWallet()
			tt.in.WalletID = d.walletID
			d.txRepo.EXPECT().ListPage(gomock.Any(), ports.TransactionListParams{
				WalletID: d.walletID, Page: tt.wantPage, PageSize: tt.wantSize,
			}).Return([]domain.Transaction{}, int64(0), nil)

			_, total, err := d.svc.ListTransactionsPage(context.Background(), d.userID, tt.in)
			require.NoError(t, err)
			assert.Zero(t, total)
		})
	}
}

func TestPortfolioService_ListCoinTransactions_BadSymbol(t *testing.T) {
	d := setupPortfolioService(t)
	_, err := d.svc.ListCoinTransactions(context.Background(), d.userID, d.walletID, "b t c")
	assertCode(t, err, apperror.CodeValidation)
}

func TestPortfolioService_GetTransaction(t *testing.T) {
	d := setupPortfolioService(t)
	id := uuid.New()

	d.expectWallet()
	d.txRepo.EXPECT().GetByID(gomock.Any(), d.walletID, id).Return(nil, nil)
	_, err := d.svc.GetTransaction(context.Background(), d.userID, d.walletID, id)
	assertCode(t, err, apperror.CodeNotFound)

	d.expectWallet()
	d.txRepo.EXPECT().GetByID(gomock.Any(), d.walletID, id).Return(nil, errors.New("boom"))
	_, err = d.svc.GetTransaction(context.Background(), d.userID, d.walletID, id)
	assertCode(t, err, apperror.CodeStorage)
}

func TestPortfolioService_Positions(t *testing.T) {
	d := setupPortfolioService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	d.expectWallet()
	// Newest first, as the repository returns them.
	d.txRepo.EXPECT().ListByWallet(gomock.Any(), d.walletID).Return([]domain.Transaction{
		d.coinEntry("eth", domain.SideSell, "1", "3000", base.Add(3*time.Hour)),
		d.coinEntry("eth", domain.SideBuy, "1", "2000", base.Add(2*time.Hour)),
		d.coinEntry("btc", domain.SideBuy, "2", "100", base),
	}, nil)
	// Only open positions need a price.
	d.prices.EXPECT().CurrentPrices(gomock.Any(), []string{"btc"}).
		Return(map[string]decimal.Decimal{"btc": dec("150")})

	positions, err := d.svc.Positions(context.Background(), d.userID, d.walletID)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	assert.Equal(t, "btc", positions[0].CoinSymbol)
	assert.Equal(t, "300", positions[0].CurrentValue.String())
	assert.Equal(t, "100", positions[0].UnrealizedPnL.String())

	// Closed position kept for its realized P&L.
	assert.Equal(t, "eth", positions[1].CoinSymbol)
	assert.True(t, positions[1].Quantity.IsZero())
	assert.Equal(t, "1000", positions[1].RealizedPnL.String())
}

func TestPortfolioService_CoinStats(t *testing.T) {
	d := setupPortfolioService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	d.expectWallet()
	d.txRepo.EXPECT().ListByCoin(gomock.Any(), d.walletID, "btc").Return([]domain.Transaction{
		d.coinEntry("btc", domain.SideBuy, "2", "100", base),
		d.coinEntry("btc", domain.SideBuy, "1", "130", base.Add(time.Hour)),
	}, nil)
	d.prices.EXPECT().CurrentPrices(gomock.Any(), []string{"btc"}).Return(map[string]decimal.Decimal{})

	pos, err := d.svc.CoinStats(context.Background(), d.userID, d.walletID, "BTC")
	require.NoError(t, err)
	assert.Equal(t, "110", pos.AvgBuyingPrice().String())
	assert.False(t, pos.PriceKnown)
	assert.True(t, pos.CurrentValue.IsZero())
}

func TestPortfolioService_CoinStats_NoTransactions(t *testing.T) {
	d := setupPortfolioService(t)
	d.expectWallet()
	d.txRepo.EXPECT().ListByCoin(gomock.Any(), d.walletID, "btc").Return([]domain.Transaction{}, nil)

	_, err := d.svc.CoinStats(context.Background(), d.userID, d.walletID, "btc")
	assertCode(t, err, apperror.CodeNotFound)
}

func TestPortfolioService_CoinChart(t *testing.T) {
	d := setupPortfolioService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	d.expectWallet()
	d.txRepo.EXPECT().ListByCoin(gomock.Any(), d.walletID, "btc").Return([]domain.Transaction{
		d.coinEntry("btc", domain.SideBuy, "2", "100", base),
		d.coinEntry("btc", domain.SideBuy, "1", "130", base.Add(24*time.Hour)),
		d.coinEntry("btc", domain.SideSell, "2", "150", base.Add(48*time.Hour)),
	}, nil)

	chart, err := d.svc.CoinChart(context.Background(), d.userID, d.walletID, "btc", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "btc", chart.CoinSymbol)
	assert.Equal(t, "2", chart.InitialQuantity.String())
	require.Len(t, chart.Points, 2)
	assert.Equal(t, "3", chart.Points[0].RunningQuantity.String())
	assert.Equal(t, "1", chart.Points[1].RunningQuantity.String())
}

func TestPortfolioService_Summary(t *testing.T) {
	d := setupPortfolioService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	d.expectWallet()
	d.txRepo.EXPECT().ListByWallet(gomock.Any(), d.walletID).Return([]domain.Transaction{
		d.coinEntry("sol", domain.SideBuy, "10", "20", base.Add(time.Hour)),
		d.coinEntry("btc", domain.SideBuy, "1", "100", base),
	}, nil)
	d.prices.EXPECT().CurrentPrices(gomock.Any(), []string{"btc", "sol"}).
		Return(map[string]decimal.Decimal{"btc": dec("120")})

	summary, err := d.svc.Summary(context.Background(), d.userID, d.walletID)
	require.NoError(t, err)
	assert.Equal(t, "300", summary.TotalInvested.String())
	assert.Equal(t, "120", summary.CurrentValue.String())
	assert.Equal(t, []string{"sol"}, summary.MissingPrices)
}

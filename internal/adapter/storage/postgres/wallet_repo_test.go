package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(userID uuid.UUID) *domain.Wallet {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Wallet{
		ID:               uuid.New(),
		UserID:           userID,
		Name:             "Main",
		TotalInvested:    decimal.RequireFromString("110"),
		TotalRealizedPnL: decimal.RequireFromString("80.5"),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func walletCols() []string {
	return []string{"id", "user_id", "name", "total_invested", "total_realized_pnl", "created_at", "updated_at"}
}

func walletRow(w *domain.Wallet) *pgxmock.Rows {
	return pgxmock.NewRows(walletCols()).AddRow(
		w.ID, w.UserID, w.Name, w.TotalInvested.String(), w.TotalRealizedPnL.String(),
		w.CreatedAt, w.UpdatedAt,
	)
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.UserID, w.Name, "110", "80.5", w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Create_DuplicateName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.UserID, w.Name, "110", "80.5", w.CreatedAt, w.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "wallets_user_name_key"})

	err = repo.Create(context.Background(), w)
	assert.ErrorIs(t, err, ports.ErrDuplicateWalletName)
}

func TestWalletRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(w.ID, w.UserID).
		WillReturnRows(walletRow(w))

	result, err := repo.GetByID(context.Background(), w.UserID, w.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.Equal(t, "Main", result.Name)
	assert.True(t, w.TotalInvested.Equal(result.TotalInvested))
	assert.True(t, w.TotalRealizedPnL.Equal(result.TotalRealizedPnL))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	id, owner := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE id").
		WithArgs(id, owner).
		WillReturnRows(pgxmock.NewRows(walletCols()))

	result, err := repo.GetByID(context.Background(), owner, id)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestWalletRepo_ListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	owner := uuid.New()
	a, b := newTestWallet(owner), newTestWallet(owner)
	b.Name = "Cold"

	rows := pgxmock.NewRows(walletCols()).
		AddRow(a.ID, a.UserID, a.Name, "110", "80.5", a.CreatedAt, a.UpdatedAt).
		AddRow(b.ID, b.UserID, b.Name, "0", "0", b.CreatedAt, b.UpdatedAt)
	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id = \\$1 ORDER BY created_at").
		WithArgs(owner).
		WillReturnRows(rows)

	result, err := repo.ListByUser(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "Cold", result[1].Name)
	assert.True(t, result[1].TotalInvested.IsZero())
}

func TestWalletRepo_ListByUser_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	owner := uuid.New()
	mock.ExpectQuery("SELECT .+ FROM wallets").WithArgs(owner).WillReturnRows(pgxmock.NewRows(walletCols()))

	result, err := repo.ListByUser(context.Background(), owner)
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestWalletRepo_Rename(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())
	w.Name = "Trading"

	mock.ExpectQuery("UPDATE wallets SET name").
		WithArgs("Trading", w.ID, w.UserID).
		WillReturnRows(walletRow(w))

	result, err := repo.Rename(context.Background(), w.UserID, w.ID, "Trading")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Trading", result.Name)
}

func TestWalletRepo_Rename_Duplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	id, owner := uuid.New(), uuid.New()

	mock.ExpectQuery("UPDATE wallets SET name").
		WithArgs("Main", id, owner).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = repo.Rename(context.Background(), owner, id, "Main")
	assert.ErrorIs(t, err, ports.ErrDuplicateWalletName)
}

func TestWalletRepo_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	id, owner := uuid.New(), uuid.New()

	mock.ExpectExec("DELETE FROM wallets").
		WithArgs(id, owner).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM wallets").
		WithArgs(id, owner).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err := repo.Delete(context.Background(), owner, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), owner, id)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM wallets WHERE id = \\$1 AND user_id = \\$2 FOR UPDATE").
		WithArgs(w.ID, w.UserID).
		WillReturnRows(walletRow(w))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), dbTx, w.UserID, w.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_UpdateStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	id := uuid.New()
	stats := domain.WalletStats{
		TotalInvested:    decimal.RequireFromString("110"),
		TotalRealizedPnL: decimal.RequireFromString("80"),
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET total_invested").
		WithArgs("110", "80", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE wallets SET total_invested").
		WithArgs("110", "80", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.UpdateStats(context.Background(), dbTx, id, stats))
	assert.Error(t, repo.UpdateStats(context.Background(), dbTx, id, stats))
}

func TestWalletRepo_BadNumeric(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM wallets").
		WithArgs(w.ID, w.UserID).
		WillReturnRows(pgxmock.NewRows(walletCols()).
			AddRow(w.ID, w.UserID, w.Name, "NaN?", "0", w.CreatedAt, w.UpdatedAt))

	_, err = repo.GetByID(context.Background(), w.UserID, w.ID)
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

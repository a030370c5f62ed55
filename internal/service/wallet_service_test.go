package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ports"
	"coin-ledger/internal/core/ports/mocks"
	"coin-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupWalletService(t *testing.T) (*WalletServiceImpl, *mocks.MockWalletRepository) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockWalletRepository(ctrl)
	return NewWalletService(repo, zerolog.Nop()), repo
}

func TestWalletService_Create_Success(t *testing.T) {
	svc, repo := setupWalletService(t)
	userID := uuid.New()

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, w *domain.Wallet) error {
			assert.Equal(t, "Long term", w.Name)
			assert.Equal(t, userID, w.UserID)
			assert.True(t, w.TotalInvested.IsZero())
			return nil
		})

	w, err := svc.Create(context.Background(), userID, "  Long term  ")
	require.NoError(t, err)
	assert.Equal(t, "Long term", w.Name)
	assert.NotEqual(t, uuid.Nil, w.ID)
}

func TestWalletService_Create_InvalidName(t *testing.T) {
	svc, _ := setupWalletService(t)

	for _, name := range []string{"", "   ", strings.Repeat("x", domain.MaxWalletNameLength+1)} {
		_, err := svc.Create(context.Background(), uuid.New(), name)
		assertCode(t, err, apperror.CodeValidation)
	}
}

func TestWalletService_Create_Duplicate(t *testing.T) {
	svc, repo := setupWalletService(t)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(ports.ErrDuplicateWalletName)

	_, err := svc.Create(context.Background(), uuid.New(), "Main")
	assertCode(t, err, apperror.CodeConflict)
}

func TestWalletService_Create_StorageError(t *testing.T) {
	svc, repo := setupWalletService(t)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	_, err := svc.Create(context.Background(), uuid.New(), "Main")
	appErr := assertCode(t, err, apperror.CodeStorage)
	assert.NotContains(t, appErr.Message, "connection reset")
}

func TestWalletService_Get(t *testing.T) {
	svc, repo := setupWalletService(t)
	userID, id := uuid.New(), uuid.New()

	repo.EXPECT().GetByID(gomock.Any(), userID, id).Return(&domain.Wallet{ID: id, UserID: userID}, nil)
	w, err := svc.Get(context.Background(), userID, id)
	require.NoError(t, err)
	assert.Equal(t, id, w.ID)

	repo.EXPECT().GetByID(gomock.Any(), userID, id).Return(nil, nil)
	_, err = svc.Get(context.Background(), userID, id)
	assertCode(t, err, apperror.CodeNotFound)
}

func TestWalletService_List(t *testing.T) {
	svc, repo := setupWalletService(t)
	userID := uuid.New()
	repo.EXPECT().ListByUser(gomock.Any(), userID).Return([]domain.Wallet{{Name: "a"}, {Name: "b"}}, nil)

	wallets, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, wallets, 2)
}

func TestWalletService_Rename(t *testing.T) {
	svc, repo := setupWalletService(t)
	userID, id := uuid.New(), uuid.New()

	repo.EXPECT().Rename(gomock.Any(), userID, id, "Trading").Return(&domain.Wallet{ID: id, Name: "Trading"}, nil)
	w, err := svc.Rename(context.Background(), userID, id, " Trading ")
	require.NoError(t, err)
	assert.Equal(t, "Trading", w.Name)

	repo.EXPECT().Rename(gomock.Any(), userID, id, "Taken").Return(nil, ports.ErrDuplicateWalletName)
	_, err = svc.Rename(context.Background(), userID, id, "Taken")
	assertCode(t, err, apperror.CodeConflict)

	repo.EXPECT().Rename(gomock.Any(), userID, id, "Gone").Return(nil, nil)
	_, err = svc.Rename(context.Background(), userID, id, "Gone")
	assertCode(t, err, apperror.CodeNotFound)
}

func TestWalletService_Delete(t *testing.T) {
	svc, repo := setupWalletService(t)
	userID, id := uuid.New(), uuid.New()

	repo.EXPECT().Delete(gomock.Any(), userID, id).Return(true, nil)
	require.NoError(t, svc.Delete(context.Background(), userID, id))

	repo.EXPECT().Delete(gomock.Any(), userID, id).Return(false, nil)
	assertCode(t, svc.Delete(context.Background(), userID, id), apperror.CodeNotFound)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ports"
	"coin-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(walletRepo ports.WalletRepository, log zerolog.Logger) *WalletServiceImpl {
	return &WalletServiceImpl{walletRepo: walletRepo, log: log}
}

// Create opens an empty wallet. Names are unique per owner.
func (s *WalletServiceImpl) Create(ctx context.Context, userID uuid.UUID, name string) (*domain.Wallet, error) {
	name, err := domain.ParseWalletName(name)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:               uuid.New(),
		UserID:           userID,
		Name:             name,
		TotalInvested:    decimal.Zero,
		TotalRealizedPnL: decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		if errors.Is(err, ports.ErrDuplicateWalletName) {
			return nil, apperror.ErrWalletNameTaken()
		}
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("user_id", userID.String()).
		Msg("wallet created")

	return wallet, nil
}

func (s *WalletServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallets: %w", err))
	}
	return wallets, nil
}

func (s *WalletServiceImpl) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// Rename changes the display name of a wallet. Renaming to its current name is allowed.
func (s *WalletServiceImpl) Rename(ctx context.Context, userID, id uuid.UUID, name string) (*domain.Wallet, error) {
	name, err := domain.ParseWalletName(name)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	wallet, err := s.walletRepo.Rename(ctx, userID, id, name)
	if err != nil {
		if errors.Is(err, ports.ErrDuplicateWalletName) {
			return nil, apperror.ErrWalletNameTaken()
		}
		return nil, apperror.InternalError(fmt.Errorf("rename wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// Delete removes the wallet together with all of its transactions.
func (s *WalletServiceImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	deleted, err := s.walletRepo.Delete(ctx, userID, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("delete wallet: %w", err))
	}
	if !deleted {
		return apperror.ErrNotFound("wallet")
	}

	s.log.Info().
		Str("wallet_id", id.String()).
		Str("user_id", userID.String()).
		Msg("wallet deleted")
	return nil
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	store *Store
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(store *Store) *WalletRepo {
	return &WalletRepo{store: store}
}

func (r *WalletRepo) Create(_ context.Context, w *domain.Wallet) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(w.UserID, w.Name, uuid.Nil) {
		return ports.ErrDuplicateWalletName
	}
	s.wallets[w.ID] = *w
	return nil
}

func (r *WalletRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*domain.Wallet, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownedWallet(userID, id), nil
}

// ListByUser returns the owner's wallets, oldest first.
func (r *WalletRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	wallets := []domain.Wallet{}
	for _, w := range s.wallets {
		if w.UserID == userID {
			wallets = append(wallets, w)
		}
	}
	sort.Slice(wallets, func(i, j int) bool {
		if !wallets[i].CreatedAt.Equal(wallets[j].CreatedAt) {
			return wallets[i].CreatedAt.Before(wallets[j].CreatedAt)
		}
		return wallets[i].ID.String() < wallets[j].ID.String()
	})
	return wallets, nil
}

func (r *WalletRepo) Rename(_ context.Context, userID, id uuid.UUID, name string) (*domain.Wallet, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ownedWallet(userID, id)
	if w == nil {
		return nil, nil
	}
	if s.nameTaken(userID, name, id) {
		return nil, ports.ErrDuplicateWalletName
	}
	w.Name = name
	w.UpdatedAt = time.Now().UTC()
	s.wallets[id] = *w
	return w, nil
}

// Delete removes the wallet and cascades to its transactions.
func (r *WalletRepo) Delete(_ context.Context, userID, id uuid.UUID) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ownedWallet(userID, id) == nil {
		return false, nil
	}
	delete(s.wallets, id)
	for txID, tx := range s.txs {
		if tx.WalletID == id {
			delete(s.txs, txID)
		}
	}
	return true, nil
}

// GetByIDForUpdate takes the wallet lock for the lifetime of tx.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) (*domain.Wallet, error) {
	mt, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}
	s := r.store

	s.mu.RLock()
	w := s.ownedWallet(userID, id)
	s.mu.RUnlock()
	if w == nil {
		return nil, nil
	}

	if !mt.holds(id) {
		if err := s.lockWallet(ctx, id); err != nil {
			return nil, fmt.Errorf("lock wallet: %w", err)
		}
		mt.held = append(mt.held, id)
	}

	// The wallet may have been deleted while we waited.
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownedWallet(userID, id), nil
}

func (r *WalletRepo) UpdateStats(_ context.Context, tx pgx.Tx, id uuid.UUID, stats domain.WalletStats) error {
	mt, err := asMemTx(tx)
	if err != nil {
		return err
	}
	mt.stage(op{kind: opStats, walletID: id, stats: stats})
	return nil
}

// ownedWallet returns a copy of the wallet if userID owns it. Callers hold s.mu.
func (s *Store) ownedWallet(userID, id uuid.UUID) *domain.Wallet {
	w, ok := s.wallets[id]
	if !ok || !w.OwnedBy(userID) {
		return nil
	}
	return &w
}

// nameTaken reports whether another wallet of userID already uses name. Callers hold s.mu.
func (s *Store) nameTaken(userID uuid.UUID, name string, except uuid.UUID) bool {
	for id, w := range s.wallets {
		if id != except && w.UserID == userID && w.Name == name {
			return true
		}
	}
	return false
}

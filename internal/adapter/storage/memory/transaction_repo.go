package memory

import (
	"context"
	"fmt"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	store *Store
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(store *Store) *TransactionRepo {
	return &TransactionRepo{store: store}
}

func (r *TransactionRepo) Create(_ context.Context, tx pgx.Tx, t *domain.Transaction) error {
	mt, err := asMemTx(tx)
	if err != nil {
		return err
	}
	mt.stage(op{kind: opPut, tx: *t})
	return nil
}

func (r *TransactionRepo) Update(_ context.Context, tx pgx.Tx, t *domain.Transaction) error {
	mt, err := asMemTx(tx)
	if err != nil {
		return err
	}
	if find(mt.walletView(t.WalletID), t.ID) == nil {
		return fmt.Errorf("transaction not found: %s", t.ID)
	}
	mt.stage(op{kind: opPut, tx: *t})
	return nil
}

func (r *TransactionRepo) Delete(_ context.Context, tx pgx.Tx, walletID, id uuid.UUID) error {
	mt, err := asMemTx(tx)
	if err != nil {
		return err
	}
	if find(mt.walletView(walletID), id) == nil {
		return fmt.Errorf("transaction not found: %s", id)
	}
	mt.stage(op{kind: opDelete, walletID: walletID, id: id})
	return nil
}

func (r *TransactionRepo) GetByIDTx(_ context.Context, tx pgx.Tx, walletID, id uuid.UUID) (*domain.Transaction, error) {
	mt, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}
	return find(mt.walletView(walletID), id), nil
}

func (r *TransactionRepo) ListByCoinTx(_ context.Context, tx pgx.Tx, walletID uuid.UUID, coinSymbol string) ([]domain.Transaction, error) {
	mt, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}
	out := byCoin(mt.walletView(walletID), coinSymbol)
	domain.SortChronological(out)
	return out, nil
}

func (r *TransactionRepo) ListByWalletTx(_ context.Context, tx pgx.Tx, walletID uuid.UUID) ([]domain.Transaction, error) {
	mt, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}
	out := mt.walletView(walletID)
	domain.SortChronological(out)
	return out, nil
}

func (r *TransactionRepo) GetByID(_ context.Context, walletID, id uuid.UUID) (*domain.Transaction, error) {
	return find(values(r.store.committed(walletID)), id), nil
}

// ListByWallet returns the wallet's transactions, newest first.
func (r *TransactionRepo) ListByWallet(_ context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	return r.newestFirst(walletID), nil
}

func (r *TransactionRepo) ListPage(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	all := r.newestFirst(params.WalletID)
	total := int64(len(all))

	start := (params.Page - 1) * params.PageSize
	if start < 0 || start >= len(all) {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *TransactionRepo) ListByCoin(_ context.Context, walletID uuid.UUID, coinSymbol string) ([]domain.Transaction, error) {
	out := byCoin(values(r.store.committed(walletID)), coinSymbol)
	domain.SortChronological(out)
	return out, nil
}

func (r *TransactionRepo) newestFirst(walletID uuid.UUID) []domain.Transaction {
	out := values(r.store.committed(walletID))
	domain.SortChronological(out)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func find(txs []domain.Transaction, id uuid.UUID) *domain.Transaction {
	for i := range txs {
		if txs[i].ID == id {
			tx := txs[i]
			return &tx
		}
	}
	return nil
}

func byCoin(txs []domain.Transaction, coin string) []domain.Transaction {
	out := []domain.Transaction{}
	for _, tx := range txs {
		if tx.CoinSymbol == coin {
			out = append(out, tx)
		}
	}
	return out
}

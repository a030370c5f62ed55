// Package memory is an in-process ledger store for local runs without a
// database and for end-to-end tests. It keeps the postgres adapter's contracts:
// owner-scoped lookups, the wallet row lock held until commit or rollback,
// staged writes that a rollback discards, and (occurred_at, id) ordering.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"coin-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var errForeignTx = errors.New("memory: transaction was not opened by this store")

// Store holds every wallet, transaction and audit entry.
type Store struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]domain.Wallet
	txs     map[uuid.UUID]domain.Transaction
	audit   []domain.AuditLog
	locks   map[uuid.UUID]chan struct{}
}

// New creates an empty store.
func New() *Store {
	return &Store{
		wallets: make(map[uuid.UUID]domain.Wallet),
		txs:     make(map[uuid.UUID]domain.Transaction),
		locks:   make(map[uuid.UUID]chan struct{}),
	}
}

// Begin implements ports.DBTransactor.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{store: s}, nil
}

// Ping implements ports.HealthChecker. The store is always reachable.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Name returns the dependency name.
func (s *Store) Name() string {
	return "memory"
}

// lockWallet blocks until the wallet lock is free or ctx is done.
func (s *Store) lockWallet(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) unlockWallet(id uuid.UUID) {
	s.mu.RLock()
	ch := s.locks[id]
	s.mu.RUnlock()
	<-ch
}

type opKind int

const (
	opPut opKind = iota
	opDelete
	opStats
)

type op struct {
	kind     opKind
	tx       domain.Transaction
	walletID uuid.UUID
	id       uuid.UUID
	stats    domain.WalletStats
}

// memTx stages writes until Commit. Only Commit and Rollback of pgx.Tx are
// implemented; the store never issues SQL.
type memTx struct {
	pgx.Tx
	store *Store
	ops   []op
	held  []uuid.UUID
	done  bool
}

func asMemTx(tx pgx.Tx) (*memTx, error) {
	mt, ok := tx.(*memTx)
	if !ok {
		return nil, errForeignTx
	}
	if mt.done {
		return nil, pgx.ErrTxClosed
	}
	return mt, nil
}

func (t *memTx) holds(id uuid.UUID) bool {
	for _, h := range t.held {
		if h == id {
			return true
		}
	}
	return false
}

func (t *memTx) stage(o op) {
	t.ops = append(t.ops, o)
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	if err := ctx.Err(); err != nil {
		t.release()
		return fmt.Errorf("commit: %w", err)
	}

	s := t.store
	s.mu.Lock()
	for _, o := range t.ops {
		switch o.kind {
		case opPut:
			s.txs[o.tx.ID] = o.tx
		case opDelete:
			delete(s.txs, o.id)
		case opStats:
			if w, ok := s.wallets[o.walletID]; ok {
				w.TotalInvested = o.stats.TotalInvested
				w.TotalRealizedPnL = o.stats.TotalRealizedPnL
				s.wallets[o.walletID] = w
			}
		}
	}
	s.mu.Unlock()

	t.release()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.release()
	return nil
}

func (t *memTx) release() {
	t.done = true
	t.ops = nil
	for _, id := range t.held {
		t.store.unlockWallet(id)
	}
	t.held = nil
}

// walletView returns the wallet's transactions as this tx sees them:
// committed rows overlaid with the tx's own staged writes.
func (t *memTx) walletView(walletID uuid.UUID) []domain.Transaction {
	view := t.store.committed(walletID)
	for _, o := range t.ops {
		switch o.kind {
		case opPut:
			if o.tx.WalletID == walletID {
				view[o.tx.ID] = o.tx
			}
		case opDelete:
			delete(view, o.id)
		}
	}
	return values(view)
}

func (s *Store) committed(walletID uuid.UUID) map[uuid.UUID]domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]domain.Transaction)
	for id, tx := range s.txs {
		if tx.WalletID == walletID {
			out[id] = tx
		}
	}
	return out
}

func values(m map[uuid.UUID]domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(m))
	for _, tx := range m {
		out = append(out, tx)
	}
	return out
}

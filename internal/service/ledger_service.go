package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ledger"
	"coin-ledger/internal/core/ports"
	"coin-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	idempotencyTTL      = 24 * time.Hour
	idempotencyClaimTTL = 30 * time.Second
)

// LedgerServiceImpl implements ports.LedgerService.
// It is the only component that writes ledger entries.
type LedgerServiceImpl struct {
	txRepo          ports.TransactionRepository
	walletRepo      ports.WalletRepository
	transactor      ports.DBTransactor
	idempCache      ports.IdempotencyCache
	events          ports.EventPublisher
	futureTolerance time.Duration
	log             zerolog.Logger
	now             func() time.Time
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	idempCache ports.IdempotencyCache,
	events ports.EventPublisher,
	futureTolerance time.Duration,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		txRepo:          txRepo,
		walletRepo:      walletRepo,
		transactor:      transactor,
		idempCache:      idempCache,
		events:          events,
		futureTolerance: futureTolerance,
		log:             log,
		now:             time.Now,
	}
}

// change is one prepared mutation of a single (wallet, coin) history.
type change struct {
	coin     string
	mutation ledger.Mutation
	result   domain.Transaction
	deleted  bool
	event    domain.LedgerEventType
	write    func(ctx context.Context, dbTx pgx.Tx) error
}

// CreateTransaction records a new buy or sell.
func (s *LedgerServiceImpl) CreateTransaction(ctx context.Context, req ports.CreateTransactionRequest) (*ports.MutationResult, error) {
	now := domain.NormalizeTime(s.now())

	coin, err := domain.ParseCoinSymbol(req.CoinSymbol)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	occurredAt := now
	if req.OccurredAt != nil {
		occurredAt = domain.NormalizeTime(*req.OccurredAt)
	}
	candidate := domain.Transaction{
		ID:         uuid.New(),
		WalletID:   req.WalletID,
		CoinSymbol: coin,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Price:      req.Price,
		OccurredAt: occurredAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := domain.CheckFields(&candidate, now, s.futureTolerance); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	var idempKey string
	if req.IdempotencyKey != "" {
		idempKey = fmt.Sprintf("ledger:%s:%s:%s", req.UserID, req.WalletID, req.IdempotencyKey)
		cached, release, err := s.claimIdempotencyKey(ctx, idempKey)
		if err != nil {
			return nil, err
		}
		defer release()
		if cached != nil {
			return cached, nil
		}
	}

	result, err := s.apply(ctx, req.UserID, req.WalletID, func(ctx context.Context, dbTx pgx.Tx) (*change, error) {
		return &change{
			coin:     coin,
			mutation: ledger.Mutation{Kind: ledger.Insert, Candidate: candidate},
			result:   candidate,
			event:    domain.LedgerEventTransactionCreated,
			write: func(ctx context.Context, dbTx pgx.Tx) error {
				return s.txRepo.Create(ctx, dbTx, &candidate)
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if idempKey != "" {
		s.cacheResult(ctx, idempKey, result)
	}
	return result, nil
}

// UpdateTransaction applies a partial edit. Coin and wallet of the entry never change.
func (s *LedgerServiceImpl) UpdateTransaction(ctx context.Context, req ports.UpdateTransactionRequest) (*ports.MutationResult, error) {
	if err := checkPatch(req.Patch); err != nil {
		return nil, err
	}
	now := domain.NormalizeTime(s.now())

	return s.apply(ctx, req.UserID, req.WalletID, func(ctx context.Context, dbTx pgx.Tx) (*change, error) {
		current, err := s.txRepo.GetByIDTx(ctx, dbTx, req.WalletID, req.TransactionID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("load transaction: %w", err))
		}
		if current == nil {
			return nil, apperror.ErrNotFound("transaction")
		}

		candidate := req.Patch.Apply(*current)
		candidate.UpdatedAt = now
		if err := domain.CheckFields(&candidate, now, s.futureTolerance); err != nil {
			return nil, apperror.Validation(err.Error())
		}

		return &change{
			coin:     current.CoinSymbol,
			mutation: ledger.Mutation{Kind: ledger.Replace, TargetID: current.ID, Candidate: candidate},
			result:   candidate,
			event:    domain.LedgerEventTransactionUpdated,
			write: func(ctx context.Context, dbTx pgx.Tx) error {
				return s.txRepo.Update(ctx, dbTx, &candidate)
			},
		}, nil
	})
}

// DeleteTransaction removes an entry if the remaining history stays non-negative.
func (s *LedgerServiceImpl) DeleteTransaction(ctx context.Context, userID, walletID, transactionID uuid.UUID) (*ports.MutationResult, error) {
	return s.apply(ctx, userID, walletID, func(ctx context.Context, dbTx pgx.Tx) (*change, error) {
		current, err := s.txRepo.GetByIDTx(ctx, dbTx, walletID, transactionID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("load transaction: %w", err))
		}
		if current == nil {
			return nil, apperror.ErrNotFound("transaction")
		}

		return &change{
			coin:     current.CoinSymbol,
			mutation: ledger.Mutation{Kind: ledger.Remove, TargetID: current.ID},
			result:   *current,
			deleted:  true,
			event:    domain.LedgerEventTransactionDeleted,
			write: func(ctx context.Context, dbTx pgx.Tx) error {
				return s.txRepo.Delete(ctx, dbTx, walletID, current.ID)
			},
		}, nil
	})
}

// apply runs one mutation under the wallet row lock:
// lock, prepare, read history, validate, write, refresh wallet totals, commit.
func (s *LedgerServiceImpl) apply(
	ctx context.Context,
	userID, walletID uuid.UUID,
	prepare func(ctx context.Context, dbTx pgx.Tx) (*change, error),
) (*ports.MutationResult, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorageUnavailable(err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Serializes every mutation of this wallet until commit
	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, userID, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	ch, err := prepare(ctx, dbTx)
	if err != nil {
		return nil, err
	}

	history, err := s.txRepo.ListByCoinTx(ctx, dbTx, walletID, ch.coin)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load %s history: %w", ch.coin, err))
	}
	if err := ledger.Validate(history, ch.mutation); err != nil {
		return nil, rejection(err)
	}

	if err := ch.write(ctx, dbTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("%s transaction: %w", ch.mutation.Kind, err))
	}

	all, err := s.txRepo.ListByWalletTx(ctx, dbTx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load wallet history: %w", err))
	}
	projections, err := ledger.ProjectByCoin(ctx, all)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("project wallet: %w", err))
	}
	stats := ledger.Stats(projections)
	if err := s.walletRepo.UpdateStats(ctx, dbTx, walletID, stats); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update wallet stats: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	result := &ports.MutationResult{
		Transaction: ch.result,
		Deleted:     ch.deleted,
		Position:    positionOf(projections, ch.coin),
		Wallet:      stats,
	}

	s.publish(ctx, ch, result)

	s.log.Info().
		Str("op", ch.mutation.Kind.String()).
		Str("wallet_id", walletID.String()).
		Str("coin", ch.coin).
		Str("tx_id", ch.result.ID.String()).
		Msg("ledger mutation committed")

	return result, nil
}

// publish ships the ledger event. It runs after commit, so the caller going
// away must not cancel it.
func (s *LedgerServiceImpl) publish(ctx context.Context, ch *change, result *ports.MutationResult) {
	event := domain.LedgerEvent{
		Type:             ch.event,
		WalletID:         ch.result.WalletID,
		CoinSymbol:       ch.coin,
		TransactionID:    ch.result.ID,
		OccurredAt:       ch.result.OccurredAt,
		TotalInvested:    result.Wallet.TotalInvested,
		TotalRealizedPnL: result.Wallet.TotalRealizedPnL,
		At:               s.now().UTC(),
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.log.Warn().Err(err).
			Str("event", string(ch.event)).
			Str("tx_id", ch.result.ID.String()).
			Msg("failed to publish ledger event")
	}
}

// claimIdempotencyKey returns the stored result for key if there is one.
// Otherwise it claims the key so a concurrent retry gets a conflict instead
// of applying twice. An unreachable cache degrades to applying the request.
func (s *LedgerServiceImpl) claimIdempotencyKey(ctx context.Context, key string) (*ports.MutationResult, func(), error) {
	noop := func() {}

	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, applying request")
		return nil, noop, nil
	}
	if cached != nil {
		result, err := s.unmarshalCachedResult(cached)
		return result, noop, err
	}

	claimed, err := s.idempCache.Claim(ctx, key, idempotencyClaimTTL)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency claim failed, applying request")
		return nil, noop, nil
	}
	if !claimed {
		return nil, noop, apperror.ErrConflict("a request with this Idempotency-Key is already in progress")
	}
	release := func() {
		if err := s.idempCache.Release(context.WithoutCancel(ctx), key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to release idempotency claim")
		}
	}

	// The holder of the previous claim may have finished between Get and Claim.
	cached, err = s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency recheck failed, applying request")
		return nil, release, nil
	}
	if cached != nil {
		result, err := s.unmarshalCachedResult(cached)
		return result, release, err
	}
	return nil, release, nil
}

func (s *LedgerServiceImpl) cacheResult(ctx context.Context, key string, result *ports.MutationResult) {
	respJSON, err := json.Marshal(result)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to marshal idempotent response")
		return
	}
	if err := s.idempCache.Set(context.WithoutCancel(ctx), key, respJSON, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency in redis")
	}
}

func (s *LedgerServiceImpl) unmarshalCachedResult(data []byte) (*ports.MutationResult, error) {
	var result ports.MutationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached result: %w", err))
	}
	return &result, nil
}

// checkPatch rejects malformed edits before anything is read.
func checkPatch(p domain.TransactionPatch) error {
	if p.IsEmpty() {
		return apperror.Validation(domain.ErrEmptyTransactionEdit.Error())
	}
	if p.Side != nil && !p.Side.Valid() {
		return apperror.Validation(fmt.Sprintf("buyOrSell must be %q or %q", domain.SideBuy, domain.SideSell))
	}
	if p.Quantity != nil && !p.Quantity.IsPositive() {
		return apperror.Validation(domain.ErrNonPositiveQuantity.Error())
	}
	if p.Price != nil && !p.Price.IsPositive() {
		return apperror.Validation(domain.ErrNonPositivePrice.Error())
	}
	if p.Quantity != nil && !domain.AmountInRange(*p.Quantity) {
		return apperror.Validation(domain.ErrQuantityOutOfRange.Error())
	}
	if p.Price != nil && !domain.AmountInRange(*p.Price) {
		return apperror.Validation(domain.ErrPriceOutOfRange.Error())
	}
	return nil
}

// rejection converts a validator failure into the client-facing error.
func rejection(err error) error {
	var nb *ledger.NegativeBalanceError
	if errors.As(err, &nb) {
		return apperror.NegativeBalance(
			fmt.Sprintf("Insufficient %s balance: this change would make the holding negative (%s) at %s",
				nb.CoinSymbol, nb.Balance.String(), nb.OccurredAt.Format(time.RFC3339)),
			map[string]any{
				"coin_symbol":    nb.CoinSymbol,
				"transaction_id": nb.TransactionID.String(),
				"occurred_at":    nb.OccurredAt,
				"balance":        nb.Balance.String(),
			},
		)
	}
	return apperror.InternalError(fmt.Errorf("validate mutation: %w", err))
}

// positionOf returns the projection of coin, or an empty one when the coin
// no longer has any transactions.
func positionOf(projections []ledger.Projection, coin string) ledger.Projection {
	for _, p := range projections {
		if p.CoinSymbol == coin {
			return p
		}
	}
	return ledger.Projection{
		CoinSymbol:       coin,
		Quantity:         decimal.Zero,
		TotalBuyCost:     decimal.Zero,
		TotalBuyQty:      decimal.Zero,
		TotalSellRevenue: decimal.Zero,
		TotalSellQty:     decimal.Zero,
		RealizedPnL:      decimal.Zero,
	}
}

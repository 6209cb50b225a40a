package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService.
//
// Every mutation runs inside one store transaction: wallet rows are locked
// with GetByIDForUpdate, the idempotency key is inserted alongside the balance
// change, and nothing becomes durable unless all of it commits.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache // optional
	transactor ports.DBTransactor
	cacheTTL   time.Duration
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl. idempCache may be nil.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		transactor: transactor,
		cacheTTL:   cacheTTL,
		log:        log,
	}
}

// ApplyTransaction credits or debits a single wallet.
func (s *LedgerServiceImpl) ApplyTransaction(ctx context.Context, req ports.ApplyTransactionRequest) (*domain.TransactionSnapshot, error) {
	key, amount, err := validateOperation(req.IdempotencyKey, req.Amount)
	if err != nil {
		return nil, err
	}

	log := s.log.With().
		Str("wallet_id", req.WalletID.String()).
		Str("idempotency_key", key).
		Int64("amount", req.Amount).
		Logger()
	log.Debug().Str("type", req.Type).Msg("applying transaction")

	if err := s.checkIdempotency(ctx, key); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, mapStorageError("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, req.WalletID)
	if err != nil {
		return nil, mapStorageError("lock wallet", err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}

	txType, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		return nil, apperror.ErrInvalidRequest(fmt.Sprintf("Invalid transaction type: %q", req.Type))
	}

	if txType == domain.TransactionTypeDebit && !wallet.HasSufficientBalance(amount) {
		log.Warn().Int64("balance", wallet.Balance.MinorUnits()).Msg("insufficient funds")
		return nil, apperror.ErrInsufficientFunds(wallet.Balance.MinorUnits(), amount.MinorUnits())
	}
	if err := wallet.ApplyByType(txType, amount); err != nil {
		return nil, mapDomainError(err, wallet, amount)
	}

	txn := domain.NewTransaction(wallet.ID, txType, amount, time.Now())

	if err := s.persist(ctx, dbTx, key, txn, wallet); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, mapStorageError("commit tx", err)
	}

	s.rememberKey(ctx, key, txn.ID)

	log.Info().
		Str("tx_id", txn.ID.String()).
		Str("type", string(txType)).
		Int64("balance", wallet.Balance.MinorUnits()).
		Msg("transaction applied")

	return txn.Snapshot(), nil
}

// Transfer moves funds between two wallets as one atomic unit and records a
// single DEBIT against the sender.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.TransactionSnapshot, error) {
	key, amount, err := validateOperation(req.IdempotencyKey, req.Amount)
	if err != nil {
		return nil, err
	}
	if req.SenderID == req.ReceiverID {
		return nil, apperror.ErrInvalidRequest("Sender and receiver wallets must differ")
	}

	log := s.log.With().
		Str("sender_id", req.SenderID.String()).
		Str("receiver_id", req.ReceiverID.String()).
		Str("idempotency_key", key).
		Int64("amount", req.Amount).
		Logger()
	log.Debug().Msg("applying transfer")

	if err := s.checkIdempotency(ctx, key); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, mapStorageError("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock in canonical order so opposite-direction transfers cannot deadlock.
	locked := make(map[uuid.UUID]*domain.Wallet, 2)
	for _, id := range lockOrder(req.SenderID, req.ReceiverID) {
		w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, id)
		if err != nil {
			return nil, mapStorageError("lock wallet", err)
		}
		locked[id] = w
	}

	sender, receiver := locked[req.SenderID], locked[req.ReceiverID]
	if sender == nil {
		return nil, apperror.ErrNotFound("Sender wallet")
	}
	if receiver == nil {
		return nil, apperror.ErrNotFound("Receiver wallet")
	}

	if !sender.HasSufficientBalance(amount) {
		log.Warn().Int64("balance", sender.Balance.MinorUnits()).Msg("insufficient funds")
		return nil, apperror.ErrInsufficientFunds(sender.Balance.MinorUnits(), amount.MinorUnits())
	}
	if err := sender.Debit(amount); err != nil {
		return nil, mapDomainError(err, sender, amount)
	}
	if err := receiver.Credit(amount); err != nil {
		return nil, mapDomainError(err, receiver, amount)
	}

	txn := domain.NewTransaction(sender.ID, domain.TransactionTypeDebit, amount, time.Now())

	if err := s.persist(ctx, dbTx, key, txn, sender, receiver); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, mapStorageError("commit tx", err)
	}

	s.rememberKey(ctx, key, txn.ID)

	log.Info().
		Str("tx_id", txn.ID.String()).
		Int64("sender_balance", sender.Balance.MinorUnits()).
		Int64("receiver_balance", receiver.Balance.MinorUnits()).
		Msg("transfer applied")

	return txn.Snapshot(), nil
}

// persist writes the key, the wallets and the record inside dbTx.
// A key committed by a concurrent caller after the check surfaces here.
func (s *LedgerServiceImpl) persist(ctx context.Context, dbTx pgx.Tx, key string, txn *domain.Transaction, wallets ...*domain.Wallet) error {
	entry := &domain.IdempotencyKey{
		Key:           key,
		TransactionID: txn.ID,
		CreatedAt:     txn.CreatedAt,
	}
	if err := s.idempRepo.Create(ctx, dbTx, entry); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			s.log.Warn().Str("idempotency_key", key).Msg("idempotency key committed concurrently")
			return apperror.ErrDuplicateOperation(key)
		}
		return mapStorageError("save idempotency key", err)
	}

	for _, w := range wallets {
		if err := s.walletRepo.Update(ctx, dbTx, w); err != nil {
			return mapStorageError("update wallet", err)
		}
	}

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return mapStorageError("create transaction", err)
	}
	return nil
}

// checkIdempotency fails fast on a key that is already known. A cache error
// falls through to the ledger; the insert inside the transaction stays authoritative.
func (s *LedgerServiceImpl) checkIdempotency(ctx context.Context, key string) error {
	if s.idempCache != nil {
		hit, err := s.idempCache.Exists(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", key).Msg("redis idempotency check failed, falling through to DB")
		}
		if hit {
			return apperror.ErrDuplicateOperation(key)
		}
	}

	exists, err := s.idempRepo.Exists(ctx, key)
	if err != nil {
		return mapStorageError("db idempotency check", err)
	}
	if exists {
		s.log.Warn().Str("idempotency_key", key).Msg("duplicate operation rejected")
		return apperror.ErrDuplicateOperation(key)
	}
	return nil
}

// rememberKey caches a committed key (best-effort).
func (s *LedgerServiceImpl) rememberKey(ctx context.Context, key string, txID uuid.UUID) {
	if s.idempCache == nil {
		return
	}
	if err := s.idempCache.Remember(ctx, key, txID.String(), s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to cache idempotency key in redis")
	}
}

func validateOperation(rawKey string, rawAmount int64) (string, domain.Money, error) {
	key, err := domain.NormalizeIdempotencyKey(rawKey)
	if err != nil {
		return "", domain.Money{}, apperror.ErrInvalidRequest("Idempotency key is required and must be at most 255 bytes")
	}
	if rawAmount <= 0 {
		return "", domain.Money{}, apperror.ErrInvalidRequest("Amount must be a positive number of minor units")
	}
	amount, err := domain.NewMoney(rawAmount)
	if err != nil {
		return "", domain.Money{}, apperror.ErrInvalidRequest(err.Error())
	}
	return key, amount, nil
}

// lockOrder returns the two IDs sorted by their byte representation.
func lockOrder(a, b uuid.UUID) []uuid.UUID {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return []uuid.UUID{a, b}
	}
	return []uuid.UUID{b, a}
}

// mapDomainError classifies a rejected wallet mutation.
func mapDomainError(err error, w *domain.Wallet, amount domain.Money) error {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return apperror.ErrInsufficientFunds(w.Balance.MinorUnits(), amount.MinorUnits())
	case errors.Is(err, domain.ErrAmountOverflow):
		return apperror.ErrInvalidRequest("Resulting balance exceeds the supported range")
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidTransactionType):
		return apperror.ErrInvalidRequest(err.Error())
	default:
		return apperror.ErrStorageFault(err)
	}
}

// mapStorageError turns a store failure into Busy when retrying is safe and StorageFault otherwise.
func mapStorageError(op string, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)
	switch {
	case errors.Is(err, ports.ErrLockTimeout),
		errors.Is(err, ports.ErrVersionConflict),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return apperror.ErrBusy(wrapped)
	default:
		return apperror.ErrStorageFault(wrapped)
	}
}

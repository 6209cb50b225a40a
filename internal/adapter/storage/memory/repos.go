package memory

import (
	"context"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

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

// Create stores a new wallet outside any transaction.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.wallets[w.ID]; ok {
		return fmt.Errorf("insert wallet %s: %w", w.ID, ports.ErrDuplicateKey)
	}
	r.store.wallets[w.ID] = *w
	return nil
}

// GetByID returns the committed wallet, or nil when it does not exist.
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	w, ok := r.store.committedWallet(id)
	if !ok {
		return nil, nil
	}
	return &w, nil
}

// GetByIDForUpdate locks the wallet for the rest of tx and returns it.
// A missing wallet returns nil without taking a lock.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	mtx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if _, ok := mtx.current(id); !ok {
		return nil, nil
	}
	if err := mtx.lock(ctx, id); err != nil {
		return nil, fmt.Errorf("get wallet for update by id: %w", err)
	}

	w, _ := mtx.current(id)
	return &w, nil
}

// Update stages the new balance. The caller must hold the wallet lock and
// w.Version must match what tx last saw.
func (r *WalletRepo) Update(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}
	if !mtx.holds(w.ID) {
		return fmt.Errorf("update wallet %s: not locked by transaction", w.ID)
	}

	cur, ok := mtx.current(w.ID)
	if !ok || cur.Version != w.Version {
		return fmt.Errorf("update wallet %s at version %d: %w", w.ID, w.Version, ports.ErrVersionConflict)
	}

	next := *w
	next.Version++
	mtx.mu.Lock()
	mtx.wallets[w.ID] = next
	mtx.mu.Unlock()

	w.Version = next.Version
	return nil
}

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	store *Store
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(store *Store) *TransactionRepo {
	return &TransactionRepo{store: store}
}

// Create stages a transaction record on tx.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}
	mtx.mu.Lock()
	mtx.records = append(mtx.records, *t)
	mtx.mu.Unlock()
	return nil
}

// ListByWallet returns one page of committed records, newest first.
func (r *TransactionRepo) ListByWallet(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	all := r.store.records[params.WalletID]
	total := int64(len(all))

	// Pages past the end are empty; compared by division so a huge page cannot overflow the offset.
	if len(all) == 0 || params.Page < 1 || params.PageSize < 1 || params.Page-1 > (len(all)-1)/params.PageSize {
		return []domain.Transaction{}, total, nil
	}

	offset := (params.Page - 1) * params.PageSize
	page := make([]domain.Transaction, 0, min(params.PageSize, len(all)-offset))
	for i := len(all) - 1 - offset; i >= 0 && len(page) < params.PageSize; i-- {
		page = append(page, all[i])
	}
	return page, total, nil
}

// IdempotencyRepo implements ports.IdempotencyRepository.
type IdempotencyRepo struct {
	store *Store
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(store *Store) *IdempotencyRepo {
	return &IdempotencyRepo{store: store}
}

// Create reserves the key for tx; it is committed or released with tx.
func (r *IdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, k *domain.IdempotencyKey) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := r.store.reserveKey(mtx, k.Key); err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}
	mtx.mu.Lock()
	mtx.keys = append(mtx.keys, *k)
	mtx.mu.Unlock()
	return nil
}

// Exists reports whether key has been committed.
func (r *IdempotencyRepo) Exists(ctx context.Context, key string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	_, ok := r.store.keys[key]
	return ok, nil
}

// HealthCheck implements ports.HealthChecker for the memory store.
type HealthCheck struct{}

// NewHealthCheck creates a memory store health checker.
func NewHealthCheck() *HealthCheck {
	return &HealthCheck{}
}

// Ping always succeeds.
func (h *HealthCheck) Ping(ctx context.Context) error {
	return nil
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "memory"
}

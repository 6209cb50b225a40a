package ports

import (
	"context"
	"errors"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Store-level sentinels. Adapters translate their native failures into these
// so the service layer can classify errors without knowing the backend.
var (
	// ErrLockTimeout means a row lock could not be acquired within the configured bound.
	ErrLockTimeout = errors.New("lock wait timeout")
	// ErrDuplicateKey means a unique constraint rejected the insert.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrVersionConflict means the row changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	// Update persists balance and bumps the version. It fails with
	// ErrVersionConflict when wallet.Version no longer matches the stored row.
	Update(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
}

// TransactionRepository defines persistence operations for transaction records.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	ListByWallet(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	WalletID uuid.UUID
	Page     int
	PageSize int
}

// Paging limits for transaction listings.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 100000
)

// WithDefaults fills a zero Page or PageSize with the defaults.
func (p TransactionListParams) WithDefaults() TransactionListParams {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// IdempotencyRepository is the authoritative idempotency ledger.
type IdempotencyRepository interface {
	// Create inserts the key inside tx. A key committed earlier, or held by
	// another open transaction, fails with ErrDuplicateKey.
	Create(ctx context.Context, tx pgx.Tx, key *domain.IdempotencyKey) error
	Exists(ctx context.Context, key string) (bool, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
)

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks
//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks
//go:generate mockgen -source=health.go -destination=mocks/mock_health.go -package=mocks

// IdempotencyCache is the Redis-layer idempotency check (fast path).
// A hit is final; a miss says nothing and the ledger must be consulted.
type IdempotencyCache interface {
	Exists(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key string, transactionID string, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// WalletService is the wallet directory.
type WalletService interface {
	// CreateWallet opens a wallet. A nil initial balance means zero.
	CreateWallet(ctx context.Context, initialBalance *int64) (*domain.WalletSnapshot, error)
	GetWallet(ctx context.Context, id uuid.UUID) (*domain.WalletSnapshot, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.TransactionSnapshot, int64, error)
}

// LedgerService applies balance mutations atomically and at most once per key.
type LedgerService interface {
	ApplyTransaction(ctx context.Context, req ApplyTransactionRequest) (*domain.TransactionSnapshot, error)
	Transfer(ctx context.Context, req TransferRequest) (*domain.TransactionSnapshot, error)
}

// ApplyTransactionRequest is a single-wallet credit or debit.
type ApplyTransactionRequest struct {
	WalletID       uuid.UUID
	Type           string
	Amount         int64
	IdempotencyKey string
}

// TransferRequest moves Amount from SenderID to ReceiverID.
type TransferRequest struct {
	SenderID       uuid.UUID
	ReceiverID     uuid.UUID
	Amount         int64
	IdempotencyKey string
}

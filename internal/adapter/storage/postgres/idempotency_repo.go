package postgres

import (
	"context"
	"fmt"

	"wallet-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyRepository.
// The primary key on idempotency_keys.key is the authoritative duplicate check:
// a concurrent inserter blocks on the uncommitted row and fails with 23505 once
// the first transaction commits.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Create inserts an idempotency key within a database transaction.
func (r *IdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, k *domain.IdempotencyKey) error {
	query := `INSERT INTO idempotency_keys (key, transaction_id, created_at) VALUES ($1, $2, $3)`

	_, err := tx.Exec(ctx, query, k.Key, k.TransactionID, k.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", translateError(err))
	}
	return nil
}

// Exists reports whether key has been committed.
func (r *IdempotencyRepo) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM idempotency_keys WHERE key = $1)`, key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check idempotency key: %w", err)
	}
	return exists, nil
}

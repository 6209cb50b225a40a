package postgres

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/config"

	"github.com/jackc/pgx/v5"
)

// Transactor implements ports.DBTransactor using pgxpool.Pool.
// Every transaction it opens bounds row-lock waits with SET LOCAL lock_timeout,
// so a FOR UPDATE that cannot acquire its lock fails with SQLSTATE 55P03.
type Transactor struct {
	pool        Pool
	isoLevel    pgx.TxIsoLevel
	lockTimeout time.Duration
}

// NewTransactor creates a new Transactor wrapping the connection pool.
func NewTransactor(pool Pool, cfg config.LedgerConfig) *Transactor {
	return &Transactor{
		pool:        pool,
		isoLevel:    isoLevel(cfg.Isolation),
		lockTimeout: cfg.LockTimeout,
	}
}

// Begin starts a new database transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: t.isoLevel})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", translateError(err))
	}

	if t.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}
	return ledgerTx{Tx: tx}, nil
}

// ledgerTx translates commit failures (serialization, deadlock) into port sentinels.
type ledgerTx struct {
	pgx.Tx
}

func (t ledgerTx) Commit(ctx context.Context) error {
	if err := t.Tx.Commit(ctx); err != nil {
		return translateError(err)
	}
	return nil
}

func isoLevel(name string) pgx.TxIsoLevel {
	switch name {
	case config.IsolationRepeatableRead:
		return pgx.RepeatableRead
	case config.IsolationSerializable:
		return pgx.Serializable
	default:
		return pgx.ReadCommitted
	}
}

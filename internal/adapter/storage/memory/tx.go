package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errUnsupported = errors.New("memory store: SQL is not supported")

// Transactor implements ports.DBTransactor for the memory store.
type Transactor struct {
	store *Store
}

// NewTransactor creates a transactor over store.
func NewTransactor(store *Store) *Transactor {
	return &Transactor{store: store}
}

// Begin opens a transaction. It never blocks; waiting happens on wallet locks.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{
		store:   t.store,
		held:    make(map[uuid.UUID]struct{}),
		wallets: make(map[uuid.UUID]domain.Wallet),
	}, nil
}

// Tx is a memory store transaction. It satisfies pgx.Tx so the service layer
// can treat both stores alike; the SQL methods are not supported.
type Tx struct {
	mu      sync.Mutex
	store   *Store
	held    map[uuid.UUID]struct{}
	wallets map[uuid.UUID]domain.Wallet
	records []domain.Transaction
	keys    []domain.IdempotencyKey
	closed  bool
}

var _ pgx.Tx = (*Tx)(nil)

func asTx(tx pgx.Tx) (*Tx, error) {
	mtx, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("memory store: foreign transaction %T", tx)
	}
	mtx.mu.Lock()
	defer mtx.mu.Unlock()
	if mtx.closed {
		return nil, pgx.ErrTxClosed
	}
	return mtx, nil
}

// lock takes the wallet lock unless tx already holds it.
func (t *Tx) lock(ctx context.Context, id uuid.UUID) error {
	t.mu.Lock()
	_, held := t.held[id]
	t.mu.Unlock()
	if held {
		return nil
	}

	if err := t.store.acquire(ctx, id); err != nil {
		return err
	}

	t.mu.Lock()
	t.held[id] = struct{}{}
	t.mu.Unlock()
	return nil
}

func (t *Tx) holds(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.held[id]
	return ok
}

// current returns the wallet as this transaction sees it.
func (t *Tx) current(id uuid.UUID) (domain.Wallet, bool) {
	t.mu.Lock()
	w, staged := t.wallets[id]
	t.mu.Unlock()
	if staged {
		return w, true
	}
	return t.store.committedWallet(id)
}

func (t *Tx) finish() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.closed = true
	return true
}

func (t *Tx) releaseAll() {
	t.mu.Lock()
	held := t.held
	t.held = make(map[uuid.UUID]struct{})
	t.mu.Unlock()
	for id := range held {
		t.store.release(id)
	}
}

// Begin is not supported: the memory store has no savepoints.
func (t *Tx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errUnsupported
}

// Commit publishes staged writes atomically, then releases wallet locks.
func (t *Tx) Commit(ctx context.Context) error {
	if !t.finish() {
		return pgx.ErrTxClosed
	}
	t.store.apply(t)
	t.releaseAll()
	return nil
}

// Rollback drops staged writes and releases wallet locks.
// Rolling back a finished transaction returns pgx.ErrTxClosed.
func (t *Tx) Rollback(ctx context.Context) error {
	if !t.finish() {
		return pgx.ErrTxClosed
	}
	t.store.discard(t)
	t.releaseAll()
	return nil
}

func (t *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errUnsupported
}

func (t *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return errBatch{} }

// LargeObjects returns the zero value: pgx offers no way to bind one to a
// non-pgx transaction, so its methods must not be called on the memory store.
func (t *Tx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errUnsupported
}

func (t *Tx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errUnsupported
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errUnsupported
}

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return errRow{}
}

func (t *Tx) Conn() *pgx.Conn { return nil }

type errRow struct{}

func (errRow) Scan(dest ...any) error { return errUnsupported }

// errBatch answers every queued statement with errUnsupported.
type errBatch struct{}

func (errBatch) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, errUnsupported }
func (errBatch) Query() (pgx.Rows, error)         { return nil, errUnsupported }
func (errBatch) QueryRow() pgx.Row                { return errRow{} }
func (errBatch) Close() error                     { return nil }

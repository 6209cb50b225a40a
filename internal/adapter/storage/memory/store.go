// Package memory is an in-process ledger store with the same locking and
// atomicity guarantees as the postgres adapter. Wallet locks are exclusive,
// bounded by a timeout and held until the owning transaction ends; writes are
// staged on the transaction and become visible together at commit.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
)

// Store holds committed ledger state.
type Store struct {
	mu          sync.Mutex
	wallets     map[uuid.UUID]domain.Wallet
	locks       map[uuid.UUID]chan struct{}
	records     map[uuid.UUID][]domain.Transaction // per wallet, commit order
	keys        map[string]domain.IdempotencyKey
	pendingKeys map[string]*Tx
	lockTimeout time.Duration
}

// NewStore creates an empty store. lockTimeout bounds every wallet lock wait.
func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		wallets:     make(map[uuid.UUID]domain.Wallet),
		locks:       make(map[uuid.UUID]chan struct{}),
		records:     make(map[uuid.UUID][]domain.Transaction),
		keys:        make(map[string]domain.IdempotencyKey),
		pendingKeys: make(map[string]*Tx),
		lockTimeout: lockTimeout,
	}
}

func (s *Store) lockFor(id uuid.UUID) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

// acquire blocks until the wallet lock is free, the timeout elapses or ctx ends.
func (s *Store) acquire(ctx context.Context, id uuid.UUID) error {
	ch := s.lockFor(id)

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("wallet %s: %w", id, ports.ErrLockTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release(id uuid.UUID) {
	ch := s.lockFor(id)
	select {
	case <-ch:
	default:
	}
}

func (s *Store) committedWallet(id uuid.UUID) (domain.Wallet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	return w, ok
}

// reserveKey claims key for tx. The first inserter wins; any later inserter,
// whether the key is committed or still pending, gets ErrDuplicateKey.
func (s *Store) reserveKey(tx *Tx, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return fmt.Errorf("idempotency key %q: %w", key, ports.ErrDuplicateKey)
	}
	if _, ok := s.pendingKeys[key]; ok {
		return fmt.Errorf("idempotency key %q in flight: %w", key, ports.ErrDuplicateKey)
	}
	s.pendingKeys[key] = tx
	return nil
}

// apply publishes everything tx staged in one step.
func (s *Store) apply(tx *Tx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, w := range tx.wallets {
		s.wallets[id] = w
	}
	for _, rec := range tx.records {
		s.records[rec.WalletID] = append(s.records[rec.WalletID], rec)
	}
	for _, k := range tx.keys {
		delete(s.pendingKeys, k.Key)
		s.keys[k.Key] = k
	}
}

func (s *Store) discard(tx *Tx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range tx.keys {
		if s.pendingKeys[k.Key] == tx {
			delete(s.pendingKeys, k.Key)
		}
	}
}

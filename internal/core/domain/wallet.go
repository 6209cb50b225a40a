package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Wallet is the balance aggregate. It is mutated only by the ledger engine
// while the wallet row is held under an exclusive lock.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	Balance   Money     `json:"-"`
	Version   int64     `json:"version"` // bumped by the store on every update
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWallet creates a wallet with a fresh identifier and the given opening balance.
func NewWallet(initial Money, now time.Time) *Wallet {
	now = now.UTC()
	return &Wallet{
		ID:        uuid.New(),
		Balance:   initial,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Credit adds a positive amount to the balance.
func (w *Wallet) Credit(amount Money) error {
	return w.mutate(amount, func(balance Money) (Money, error) {
		return balance.Add(amount)
	})
}

// Debit subtracts a positive amount, failing with ErrInsufficientFunds when the
// balance is too small. The balance is left unchanged on failure.
func (w *Wallet) Debit(amount Money) error {
	return w.mutate(amount, func(balance Money) (Money, error) {
		return balance.Subtract(amount)
	})
}

// HasSufficientBalance reports whether a debit of amount would succeed right now.
// It is a pre-check for error reporting; Debit remains the authoritative check.
func (w *Wallet) HasSufficientBalance(amount Money) bool {
	return w.Balance.GreaterOrEqual(amount)
}

// ApplyByType is the single dispatch point from transaction type to mutation.
func (w *Wallet) ApplyByType(txType TransactionType, amount Money) error {
	switch txType {
	case TransactionTypeCredit:
		return w.Credit(amount)
	case TransactionTypeDebit:
		return w.Debit(amount)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTransactionType, txType)
	}
}

func (w *Wallet) mutate(amount Money, op func(Money) (Money, error)) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if err := w.checkInvariant(); err != nil {
		return err
	}
	next, err := op(w.Balance)
	if err != nil {
		return err
	}
	if next.MinorUnits() < 0 {
		return fmt.Errorf("%w: wallet %s", ErrNegativeBalance, w.ID)
	}
	w.Balance = next
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (w *Wallet) checkInvariant() error {
	if w.Balance.MinorUnits() < 0 {
		return fmt.Errorf("%w: wallet %s", ErrNegativeBalance, w.ID)
	}
	return nil
}

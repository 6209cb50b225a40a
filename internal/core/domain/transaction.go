package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionType is the direction of a balance mutation.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// ParseTransactionType accepts CREDIT or DEBIT in any case, ignoring surrounding whitespace.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TransactionTypeCredit, TransactionTypeDebit:
		return t, nil
	default:
		if strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("%w: type is required", ErrInvalidTransactionType)
		}
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionType, s)
	}
}

// Transaction is an immutable audit entry produced by a balance mutation.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	WalletID  uuid.UUID       `json:"wallet_id"`
	Type      TransactionType `json:"type"`
	Amount    Money           `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewTransaction records a mutation of amount against walletID.
func NewTransaction(walletID uuid.UUID, txType TransactionType, amount Money, now time.Time) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		WalletID:  walletID,
		Type:      txType,
		Amount:    amount,
		CreatedAt: now.UTC(),
	}
}

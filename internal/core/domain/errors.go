package domain

import "errors"

// Business-rule errors raised by the domain model. The service layer maps them
// to apperror kinds; they never carry storage concerns.
var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrAmountOverflow         = errors.New("amount overflow")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrNegativeBalance        = errors.New("wallet balance is negative")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidIdempotencyKey  = errors.New("invalid idempotency key")
)

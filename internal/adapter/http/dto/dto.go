package dto

import "wallet-ledger/internal/core/domain"

// CreateWalletRequest is the request body for opening a wallet.
type CreateWalletRequest struct {
	InitialBalance *int64 `json:"initial_balance_in_minor_units" binding:"omitempty,gte=0"`
}

// ApplyTransactionRequest is the request body for a single-wallet credit or debit.
// The type is validated by the ledger after the wallet is located.
type ApplyTransactionRequest struct {
	WalletID       string `json:"wallet_id" binding:"required,uuid"`
	Type           string `json:"type" binding:"required"`
	Amount         int64  `json:"amount_in_minor_units" binding:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key" binding:"required,idempotency_key"`
}

// TransferRequest is the request body for a wallet-to-wallet transfer.
type TransferRequest struct {
	SenderWalletID   string `json:"sender_wallet_id" binding:"required,uuid"`
	ReceiverWalletID string `json:"receiver_wallet_id" binding:"required,uuid"`
	Amount           int64  `json:"amount_in_minor_units" binding:"required,gt=0"`
	IdempotencyKey   string `json:"idempotency_key" binding:"required,idempotency_key"`
}

// ListTransactionsQuery binds the pagination query string.
type ListTransactionsQuery struct {
	Page     int `form:"page" binding:"omitempty,gte=1,lte=100000"`
	PageSize int `form:"page_size" binding:"omitempty,gte=1,lte=100"`
}

// TransactionListResponse wraps paginated transaction list.
type TransactionListResponse struct {
	Items      []domain.TransactionSnapshot `json:"items"`
	Total      int64                        `json:"total"`
	Page       int                          `json:"page"`
	PageSize   int                          `json:"page_size"`
	TotalPages int                          `json:"total_pages"`
}

// NewTransactionListResponse computes the page count for a listing.
func NewTransactionListResponse(items []domain.TransactionSnapshot, total int64, page, pageSize int) TransactionListResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if items == nil {
		items = []domain.TransactionSnapshot{}
	}
	return TransactionListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles balance-mutating endpoints.
type LedgerHandler struct {
	ledgerSvc ports.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// ApplyTransaction handles POST /api/v1/transactions.
func (h *LedgerHandler) ApplyTransaction(c *gin.Context) {
	var req dto.ApplyTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.TrimStrings(&req)

	walletID, ok := bodyUUID(c, "wallet_id", req.WalletID)
	if !ok {
		return
	}

	result, err := h.ledgerSvc.ApplyTransaction(c.Request.Context(), ports.ApplyTransactionRequest{
		WalletID:       walletID,
		Type:           req.Type,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Transfer handles POST /api/v1/transfers.
func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.TrimStrings(&req)

	senderID, ok := bodyUUID(c, "sender_wallet_id", req.SenderWalletID)
	if !ok {
		return
	}
	receiverID, ok := bodyUUID(c, "receiver_wallet_id", req.ReceiverWalletID)
	if !ok {
		return
	}

	result, err := h.ledgerSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

func bodyUUID(c *gin.Context, field, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Error(c, apperror.Validation(field+" must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

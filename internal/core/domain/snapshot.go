package domain

import "time"

// WalletSnapshot is the read model returned for a wallet.
type WalletSnapshot struct {
	WalletID          string    `json:"wallet_id"`
	BalanceMinorUnits int64     `json:"balance_in_minor_units"`
	BalanceMajorUnits string    `json:"balance_in_major_units"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TransactionSnapshot is the read model returned for an applied operation.
type TransactionSnapshot struct {
	TransactionID    string    `json:"transaction_id"`
	WalletID         string    `json:"wallet_id"`
	Type             string    `json:"type"`
	AmountMinorUnits int64     `json:"amount_in_minor_units"`
	AmountMajorUnits string    `json:"amount_in_major_units"`
	CreatedAt        time.Time `json:"created_at"`
}

// Snapshot captures the wallet's current state.
func (w *Wallet) Snapshot() *WalletSnapshot {
	return &WalletSnapshot{
		WalletID:          w.ID.String(),
		BalanceMinorUnits: w.Balance.MinorUnits(),
		BalanceMajorUnits: w.Balance.MajorUnitsString(),
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
	}
}

// Snapshot captures the transaction record.
func (t *Transaction) Snapshot() *TransactionSnapshot {
	return &TransactionSnapshot{
		TransactionID:    t.ID.String(),
		WalletID:         t.WalletID.String(),
		Type:             string(t.Type),
		AmountMinorUnits: t.Amount.MinorUnits(),
		AmountMajorUnits: t.Amount.MajorUnitsString(),
		CreatedAt:        t.CreatedAt,
	}
}

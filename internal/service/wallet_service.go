package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// walletService implements ports.WalletService.
type walletService struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	log        zerolog.Logger
}

// NewWalletService creates a new wallet directory service.
func NewWalletService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	log zerolog.Logger,
) ports.WalletService {
	return &walletService{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		log:        log,
	}
}

func (s *walletService) CreateWallet(ctx context.Context, initialBalance *int64) (*domain.WalletSnapshot, error) {
	balance := domain.Zero
	if initialBalance != nil {
		m, err := domain.NewMoney(*initialBalance)
		if err != nil {
			return nil, apperror.ErrInvalidRequest("Initial balance must not be negative")
		}
		balance = m
	}

	wallet := domain.NewWallet(balance, time.Now())
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Int64("balance", balance.MinorUnits()).
		Msg("wallet created")

	return wallet.Snapshot(), nil
}

// GetWallet is a non-locking read of the committed wallet.
func (s *walletService) GetWallet(ctx context.Context, id uuid.UUID) (*domain.WalletSnapshot, error) {
	wallet, err := s.walletRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	return wallet.Snapshot(), nil
}

// ListTransactions returns a page of the wallet's records, newest first.
// Zero page or page size select the defaults.
func (s *walletService) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.TransactionSnapshot, int64, error) {
	params = params.WithDefaults()
	if params.Page < 1 || params.Page > ports.MaxPage {
		return nil, 0, apperror.Validation(fmt.Sprintf("page must be between 1 and %d", ports.MaxPage))
	}
	if params.PageSize < 1 || params.PageSize > ports.MaxPageSize {
		return nil, 0, apperror.Validation(fmt.Sprintf("page_size must be between 1 and %d", ports.MaxPageSize))
	}

	wallet, err := s.walletRepo.GetByID(ctx, params.WalletID)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	if wallet == nil {
		return nil, 0, apperror.ErrNotFound("Wallet")
	}

	txns, total, err := s.txRepo.ListByWallet(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}

	out := make([]domain.TransactionSnapshot, 0, len(txns))
	for i := range txns {
		out = append(out, *txns[i].Snapshot())
	}
	return out, total, nil
}

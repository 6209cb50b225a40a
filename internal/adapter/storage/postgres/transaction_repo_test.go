package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txColumns() []string {
	return []string{"id", "wallet_id", "type", "amount", "created_at"}
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := domain.NewTransaction(uuid.New(), domain.TransactionTypeCredit, domain.MustMoney(250), time.Now())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.WalletID, "CREDIT", int64(250), txn.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), dbTx, txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListByWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	walletID := uuid.New()
	now := time.Now().UTC()
	newer, older := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(walletID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE wallet_id .+ ORDER BY created_at DESC").
		WithArgs(walletID, 10, 10).
		WillReturnRows(pgxmock.NewRows(txColumns()).
			AddRow(newer, walletID, "DEBIT", int64(40), now).
			AddRow(older, walletID, "CREDIT", int64(100), now.Add(-time.Minute)))

	txns, total, err := repo.ListByWallet(context.Background(), ports.TransactionListParams{
		WalletID: walletID,
		Page:     2,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, txns, 2)
	assert.Equal(t, newer, txns[0].ID)
	assert.Equal(t, domain.TransactionTypeDebit, txns[0].Type)
	assert.Equal(t, int64(40), txns[0].Amount.MinorUnits())
	assert.Equal(t, older, txns[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListByWallet_CountError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	walletID := uuid.New()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(walletID).
		WillReturnError(errors.New("connection reset"))

	_, _, err = repo.ListByWallet(context.Background(), ports.TransactionListParams{
		WalletID: walletID, Page: 1, PageSize: 20,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "count transactions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

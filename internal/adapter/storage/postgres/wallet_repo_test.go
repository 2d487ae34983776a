package postgres

import (
	"context"
	"testing"

	"remit-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletRepo_GetBalances(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	userID := uuid.New()

	mock.ExpectQuery("SELECT currency, balance::text FROM wallet_balances").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"currency", "balance"}).
			AddRow("IQD", "4000000").
			AddRow("USD", "150"))

	balances, err := repo.GetBalances(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, balances)
	assert.True(t, balances.BalanceIQD.Equal(decimal.NewFromInt(4000000)))
	assert.True(t, balances.BalanceUSD.Equal(decimal.NewFromInt(150)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetBalances_NoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	userID := uuid.New()

	mock.ExpectQuery("SELECT currency, balance::text FROM wallet_balances").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"currency", "balance"}))

	balances, err := repo.GetBalances(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, balances)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_LockBalance_MissingRowIsZero(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance::text FROM wallet_balances .+ FOR UPDATE").
		WithArgs(userID, "IQD").
		WillReturnRows(pgxmock.NewRows([]string{"balance"}))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	balance, err := repo.LockBalance(context.Background(), tx, userID, domain.CurrencyIQD)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Adjust(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallet_balances").
		WithArgs(userID, "IQD", "-1000000").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Adjust(context.Background(), tx, userID, domain.CurrencyIQD, decimal.NewFromInt(-1000000))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_SetBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	userID := uuid.New()

	mock.ExpectExec("INSERT INTO wallet_balances").
		WithArgs(userID, "IQD", "4020000").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.SetBalance(context.Background(), userID, domain.CurrencyIQD, decimal.NewFromInt(4020000))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

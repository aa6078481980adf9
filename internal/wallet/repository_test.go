package wallet

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setupWalletMock(t *testing.T) (*Repository, sqlmock.Sqlmock, *sqlx.DB, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, sqlxDB, closer
}

func TestBalances(t *testing.T) {
	repo, mock, _, close := setupWalletMock(t)
	defer close()

	mock.ExpectQuery("SELECT a.name AS asset_name, w.balance").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"asset_name", "balance"}).
			AddRow("Silver", "20.00").
			AddRow("Gold", "100.00").
			AddRow("Diamond", "0.00"))

	balances, err := repo.Balances(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, balances, 3)
	require.Equal(t, "Silver", balances[0].AssetName)
	require.True(t, balances[1].Balance.Equal(decimal.NewFromInt(100)))
}

func TestBalances_NoWallets(t *testing.T) {
	repo, mock, _, close := setupWalletMock(t)
	defer close()

	mock.ExpectQuery("SELECT a.name AS asset_name, w.balance").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"asset_name", "balance"}))

	_, err := repo.Balances(context.Background(), 99)
	require.ErrorIs(t, err, ErrWalletNotFound)
}

func TestAssetBalance_NotFound(t *testing.T) {
	repo, mock, _, close := setupWalletMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT balance FROM wallets WHERE user_id = $1 AND asset_id = $2")).
		WithArgs(7, 9).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))

	_, err := repo.AssetBalance(context.Background(), 7, 9)
	require.ErrorIs(t, err, ErrWalletNotFound)
}

func TestProvisionTx(t *testing.T) {
	repo, mock, sqlxDB, close := setupWalletMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	tx, err := sqlxDB.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, repo.ProvisionTx(context.Background(), tx, 7))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTreasury(t *testing.T) {
	repo, mock, _, close := setupWalletMock(t)
	defer close()

	mock.ExpectQuery("SELECT id, asset_id, balance, seed_balance, created_at").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "asset_id", "balance", "seed_balance", "created_at"}).
			AddRow(1, 1, "999980.00", "1000000.00", time.Now()))

	tw, err := repo.Treasury(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, tw.Balance.Equal(decimal.RequireFromString("999980")))
	require.True(t, tw.SeedBalance.Equal(decimal.NewFromInt(1000000)))
}

package recon

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"coinvault/internal/asset"
	"coinvault/internal/metrics"
)

func setupWorker(t *testing.T) (*Worker, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	registry := asset.NewRegistry(map[string]int{asset.Silver: 1})
	w := NewWorker(sqlxDB, registry, time.Minute)

	return w, mock, func() { sqlxDB.Close() }
}

func expectCheck(mock sqlmock.Sqlmock, balance, seed, minted, reclaimed, circulating string) {
	mock.ExpectQuery("SELECT balance, seed_balance FROM system_wallet").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"balance", "seed_balance"}).
			AddRow(balance, seed))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM ledger").
		WithArgs(1, "TOPUP", "BONUS").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(minted))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM ledger").
		WithArgs(1, "SPEND").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(reclaimed))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(balance\\), 0\\) FROM wallets").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(circulating))
}

func TestCheckAsset_Balanced(t *testing.T) {
	w, mock, cleanup := setupWorker(t)
	defer cleanup()

	before := testutil.ToFloat64(metrics.ReconMismatchesTotal)

	// seed 1000000, minted 120, spent back 20 -> treasury must hold 999900
	expectCheck(mock, "999900.00", "1000000.00", "120.00", "20.00", "100.00")

	require.NoError(t, w.CheckAsset(context.Background(), 1, asset.Silver))
	require.NoError(t, mock.ExpectationsWereMet())
	require.Equal(t, before, testutil.ToFloat64(metrics.ReconMismatchesTotal))
	require.Equal(t, 100.0, testutil.ToFloat64(metrics.CirculatingSupply.WithLabelValues(asset.Silver)))
	require.Equal(t, 999900.0, testutil.ToFloat64(metrics.TreasuryBalance.WithLabelValues(asset.Silver)))
}

func TestCheckAsset_Mismatch(t *testing.T) {
	w, mock, cleanup := setupWorker(t)
	defer cleanup()

	before := testutil.ToFloat64(metrics.ReconMismatchesTotal)

	// treasury holds one unit less than the journal accounts for
	expectCheck(mock, "999899.00", "1000000.00", "120.00", "20.00", "100.00")

	require.NoError(t, w.CheckAsset(context.Background(), 1, asset.Silver))
	require.NoError(t, mock.ExpectationsWereMet())
	require.Equal(t, before+1, testutil.ToFloat64(metrics.ReconMismatchesTotal))
}

func TestStart_StopsOnCancel(t *testing.T) {
	w, mock, cleanup := setupWorker(t)
	defer cleanup()

	// the startup pass runs one full check
	expectCheck(mock, "1000000.00", "1000000.00", "0", "0", "0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

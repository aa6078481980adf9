package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"coinvault/internal/asset"
	"coinvault/internal/ledger"
)

func dec(t *testing.T, s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestTransferConservation_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	cleanDatabase(t, db)

	engine := ledger.NewEngine(db)
	ctx := context.Background()

	userID := createTestUser(t, db, "conserve@test.com", "Conserve User")
	silverID := assetID(t, db, asset.Silver)

	before := dec(t, treasuryBalance(t, db, silverID))

	entry, err := engine.Transfer(ctx, ledger.TransferParams{
		TxID:    uuid.NewString(),
		AssetID: silverID,
		From:    ledger.TreasuryAccount(),
		To:      ledger.UserAccount(userID),
		Amount:  decimal.NewFromInt(100),
		Kind:    ledger.KindTopUp,
	})
	require.NoError(t, err)
	require.NotEmpty(t, entry.TxID)

	require.True(t, dec(t, userBalance(t, db, userID, silverID)).Equal(decimal.NewFromInt(100)))
	require.True(t, dec(t, treasuryBalance(t, db, silverID)).Equal(before.Sub(decimal.NewFromInt(100))))
	require.Equal(t, 1, ledgerCount(t, db))
}

func TestTransferIdempotency_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	cleanDatabase(t, db)

	engine := ledger.NewEngine(db)
	ctx := context.Background()

	userID := createTestUser(t, db, "idem@test.com", "Idem User")
	silverID := assetID(t, db, asset.Silver)

	params := ledger.TransferParams{
		TxID:    uuid.NewString(),
		AssetID: silverID,
		From:    ledger.TreasuryAccount(),
		To:      ledger.UserAccount(userID),
		Amount:  decimal.NewFromInt(50),
		Kind:    ledger.KindTopUp,
	}

	_, err := engine.Transfer(ctx, params)
	require.NoError(t, err)

	// same token again: rejected, balances untouched
	_, err = engine.Transfer(ctx, params)
	require.ErrorIs(t, err, ledger.ErrDuplicateTransaction)

	require.True(t, dec(t, userBalance(t, db, userID, silverID)).Equal(decimal.NewFromInt(50)))
	require.Equal(t, 1, ledgerCount(t, db))
}

func TestConvert_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	cleanDatabase(t, db)

	engine := ledger.NewEngine(db)
	ctx := context.Background()

	userID := createTestUser(t, db, "convert@test.com", "Convert User")
	silverID := assetID(t, db, asset.Silver)
	goldID := assetID(t, db, asset.Gold)

	_, err := engine.Transfer(ctx, ledger.TransferParams{
		TxID:    uuid.NewString(),
		AssetID: silverID,
		From:    ledger.TreasuryAccount(),
		To:      ledger.UserAccount(userID),
		Amount:  decimal.NewFromInt(120),
		Kind:    ledger.KindTopUp,
	})
	require.NoError(t, err)

	treasuryBefore := treasuryBalance(t, db, silverID)

	entry, err := engine.Convert(ctx, ledger.ConvertParams{
		TxID:        uuid.NewString(),
		UserID:      userID,
		FromAssetID: silverID,
		ToAssetID:   goldID,
		Amount:      decimal.NewFromInt(100),
		Ratio:       50,
	})
	require.NoError(t, err)
	require.True(t, entry.Amount.Equal(decimal.NewFromInt(2)))

	require.True(t, dec(t, userBalance(t, db, userID, silverID)).Equal(decimal.NewFromInt(20)))
	require.True(t, dec(t, userBalance(t, db, userID, goldID)).Equal(decimal.NewFromInt(2)))

	// conversions move value between the user's own wallets only
	require.Equal(t, treasuryBefore, treasuryBalance(t, db, silverID))

	// non-multiples of the ratio are rejected without touching balances
	_, err = engine.Convert(ctx, ledger.ConvertParams{
		TxID:        uuid.NewString(),
		UserID:      userID,
		FromAssetID: silverID,
		ToAssetID:   goldID,
		Amount:      decimal.NewFromInt(30),
		Ratio:       50,
	})
	require.ErrorIs(t, err, ledger.ErrNotMultipleOfRatio)
	require.True(t, dec(t, userBalance(t, db, userID, silverID)).Equal(decimal.NewFromInt(20)))
}

func TestInsufficientFunds_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	cleanDatabase(t, db)

	engine := ledger.NewEngine(db)
	ctx := context.Background()

	userID := createTestUser(t, db, "broke@test.com", "Broke User")
	goldID := assetID(t, db, asset.Gold)

	_, err := engine.Transfer(ctx, ledger.TransferParams{
		TxID:    uuid.NewString(),
		AssetID: goldID,
		From:    ledger.UserAccount(userID),
		To:      ledger.TreasuryAccount(),
		Amount:  decimal.NewFromInt(10),
		Kind:    ledger.KindSpend,
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	require.Equal(t, 0, ledgerCount(t, db))
}

// Opposing transfers against the same wallet pair must not deadlock: the
// engine always locks treasury rows before user rows.
func TestConcurrentOpposingTransfers_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	cleanDatabase(t, db)

	engine := ledger.NewEngine(db)
	ctx := context.Background()

	userID := createTestUser(t, db, "racer@test.com", "Racer User")
	goldID := assetID(t, db, asset.Gold)

	// seed enough gold that the spends never fail
	_, err := engine.Transfer(ctx, ledger.TransferParams{
		TxID:    uuid.NewString(),
		AssetID: goldID,
		From:    ledger.TreasuryAccount(),
		To:      ledger.UserAccount(userID),
		Amount:  decimal.NewFromInt(1000),
		Kind:    ledger.KindTopUp,
	})
	require.NoError(t, err)

	treasuryBefore := dec(t, treasuryBalance(t, db, goldID))
	userBefore := dec(t, userBalance(t, db, userID, goldID))

	const rounds = 20
	var wg sync.WaitGroup
	errs := make(chan error, rounds*2)

	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := engine.Transfer(ctx, ledger.TransferParams{
				TxID:    uuid.NewString(),
				AssetID: goldID,
				From:    ledger.TreasuryAccount(),
				To:      ledger.UserAccount(userID),
				Amount:  decimal.NewFromInt(5),
				Kind:    ledger.KindTopUp,
			})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := engine.Transfer(ctx, ledger.TransferParams{
				TxID:    uuid.NewString(),
				AssetID: goldID,
				From:    ledger.UserAccount(userID),
				To:      ledger.TreasuryAccount(),
				Amount:  decimal.NewFromInt(5),
				Kind:    ledger.KindSpend,
			})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// equal traffic in both directions: balances end where they started
	require.True(t, dec(t, treasuryBalance(t, db, goldID)).Equal(treasuryBefore))
	require.True(t, dec(t, userBalance(t, db, userID, goldID)).Equal(userBefore))
}

package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var ErrWalletNotFound = errors.New("wallet not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ProvisionTx creates one wallet row per registered asset for a new user,
// inside the caller's transaction (account creation).
func (r *Repository) ProvisionTx(ctx context.Context, tx *sqlx.Tx, userID int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO wallets (user_id, asset_id)
		 SELECT $1, id FROM asset_types
		 ON CONFLICT (user_id, asset_id) DO NOTHING`,
		userID,
	)
	return err
}

// Balances is a point-in-time snapshot of every wallet the user holds. No
// lock is taken; it is not linearizable with an in-flight transfer.
func (r *Repository) Balances(ctx context.Context, userID int) ([]AssetBalance, error) {
	var balances []AssetBalance
	err := r.db.SelectContext(ctx, &balances, `
		SELECT a.name AS asset_name, w.balance
		FROM wallets w
		JOIN asset_types a ON w.asset_id = a.id
		WHERE w.user_id = $1
		ORDER BY a.id
	`, userID)
	if err != nil {
		return nil, err
	}
	if len(balances) == 0 {
		return nil, ErrWalletNotFound
	}
	return balances, nil
}

func (r *Repository) AssetBalance(ctx context.Context, userID, assetID int) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.GetContext(ctx, &balance,
		`SELECT balance FROM wallets WHERE user_id = $1 AND asset_id = $2`,
		userID, assetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrWalletNotFound
		}
		return decimal.Zero, err
	}
	return balance, nil
}

// Treasury returns the reserve row for an asset.
func (r *Repository) Treasury(ctx context.Context, assetID int) (*TreasuryWallet, error) {
	var tw TreasuryWallet
	err := r.db.GetContext(ctx, &tw,
		`SELECT id, asset_id, balance, seed_balance, created_at
		 FROM system_wallet WHERE asset_id = $1`, assetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &tw, nil
}

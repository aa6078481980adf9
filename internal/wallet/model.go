package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds one user's balance for one asset. Balances are only ever
// mutated by the ledger engine under a row lock.
type Wallet struct {
	ID        int             `db:"id" json:"id"`
	UserID    int             `db:"user_id" json:"user_id"`
	AssetID   int             `db:"asset_id" json:"asset_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// TreasuryWallet is the issuing authority's reserve for one asset. The seed
// balance is fixed at deployment time; the reserve is finite on purpose.
type TreasuryWallet struct {
	ID          int             `db:"id" json:"id"`
	AssetID     int             `db:"asset_id" json:"asset_id"`
	Balance     decimal.Decimal `db:"balance" json:"balance"`
	SeedBalance decimal.Decimal `db:"seed_balance" json:"seed_balance"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// AssetBalance is one row of a user's balance snapshot.
type AssetBalance struct {
	AssetName string          `db:"asset_name" json:"asset"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
}

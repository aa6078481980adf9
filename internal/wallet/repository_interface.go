package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store is the read side of the wallet tables, satisfied by *Repository.
type Store interface {
	Balances(ctx context.Context, userID int) ([]AssetBalance, error)
	AssetBalance(ctx context.Context, userID, assetID int) (decimal.Decimal, error)
}

package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags a journal entry with the operation that produced it.
type Kind string

const (
	KindTopUp   Kind = "TOPUP"
	KindBonus   Kind = "BONUS"
	KindSpend   Kind = "SPEND"
	KindConvert Kind = "CONVERT"
)

// Entry is one immutable journal row. from_wallet/to_wallet hold the row id
// of the party's balance row; the kind says which table each side lives in
// (TOPUP/BONUS: treasury->user, SPEND: user->treasury, CONVERT: user->user).
type Entry struct {
	ID         int             `db:"id" json:"id"`
	TxID       string          `db:"tx_id" json:"tx_id"`
	FromWallet int             `db:"from_wallet" json:"from_wallet"`
	ToWallet   int             `db:"to_wallet" json:"to_wallet"`
	AssetID    int             `db:"asset_id" json:"asset_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Kind       Kind            `db:"kind" json:"kind"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// Account identifies one side of a transfer: a user's wallet for some asset,
// or the treasury reserve for that asset.
type Account struct {
	userID   int
	treasury bool
}

func UserAccount(userID int) Account {
	return Account{userID: userID}
}

func TreasuryAccount() Account {
	return Account{treasury: true}
}

func (a Account) IsTreasury() bool {
	return a.treasury
}

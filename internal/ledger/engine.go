package ledger

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount        = errors.New("amount must be positive with at most two decimal places")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrInsufficientFunds    = errors.New("insufficient balance")
	ErrTreasuryDepleted     = errors.New("treasury reserve depleted")
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrNotMultipleOfRatio   = errors.New("amount must be an exact multiple of the conversion ratio")
	ErrSameWallet           = errors.New("debit and credit wallets must differ")
)

// Engine performs every balance mutation in the system. Each call runs as
// one database transaction: lock both balance rows in a fixed global order,
// re-check the debit balance under the lock, apply debit and credit, append
// exactly one journal row.
type Engine struct {
	db *sqlx.DB
}

func NewEngine(db *sqlx.DB) *Engine {
	return &Engine{db: db}
}

type TransferParams struct {
	TxID    string
	AssetID int
	From    Account
	To      Account
	Amount  decimal.Decimal
	Kind    Kind
}

type ConvertParams struct {
	TxID        string
	UserID      int
	FromAssetID int
	ToAssetID   int
	Amount      decimal.Decimal // denominated in the from-asset
	Ratio       int64
}

// walletRef points at one lockable balance row. The global lock order is:
// treasury rows before user rows, treasury rows by asset id, user rows by
// wallet id. Every transfer acquires its locks in this order, which rules
// out circular waits between transfers running in opposite directions.
type walletRef struct {
	id       int
	treasury bool
	assetID  int
}

func lockBefore(a, b walletRef) bool {
	if a.treasury != b.treasury {
		return a.treasury
	}
	if a.treasury {
		return a.assetID < b.assetID
	}
	return a.id < b.id
}

type leg struct {
	ref    walletRef
	amount decimal.Decimal
}

// Transfer moves amount of one asset between two parties and journals it.
// It begins and commits its own transaction.
func (e *Engine) Transfer(ctx context.Context, p TransferParams) (*Entry, error) {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := e.TransferTx(ctx, tx, p)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

// TransferTx is Transfer running inside a caller-owned transaction, so
// callers can make additional writes (e.g. a task-completion marker) atomic
// with the balance change.
func (e *Engine) TransferTx(ctx context.Context, tx *sqlx.Tx, p TransferParams) (*Entry, error) {
	if err := validateAmount(p.Amount); err != nil {
		return nil, err
	}

	debitRef, err := resolve(ctx, tx, p.From, p.AssetID)
	if err != nil {
		return nil, err
	}
	creditRef, err := resolve(ctx, tx, p.To, p.AssetID)
	if err != nil {
		return nil, err
	}

	return e.execute(ctx, tx,
		leg{ref: debitRef, amount: p.Amount},
		leg{ref: creditRef, amount: p.Amount},
		Entry{
			TxID:       p.TxID,
			FromWallet: debitRef.id,
			ToWallet:   creditRef.id,
			AssetID:    p.AssetID,
			Amount:     p.Amount,
			Kind:       p.Kind,
		})
}

// Convert debits p.Amount of the from-asset and credits p.Amount/p.Ratio of
// the to-asset, both wallets belonging to the same user. The treasury is not
// involved. Non-multiples of the ratio are rejected before any lock is taken.
func (e *Engine) Convert(ctx context.Context, p ConvertParams) (*Entry, error) {
	if err := validateAmount(p.Amount); err != nil {
		return nil, err
	}
	if p.Ratio <= 0 || p.FromAssetID == p.ToAssetID {
		return nil, ErrInvalidAmount
	}
	ratio := decimal.NewFromInt(p.Ratio)
	if !p.Amount.Mod(ratio).IsZero() {
		return nil, ErrNotMultipleOfRatio
	}
	credited := p.Amount.Div(ratio)

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	debitRef, err := resolve(ctx, tx, UserAccount(p.UserID), p.FromAssetID)
	if err != nil {
		return nil, err
	}
	creditRef, err := resolve(ctx, tx, UserAccount(p.UserID), p.ToAssetID)
	if err != nil {
		return nil, err
	}

	entry, err := e.execute(ctx, tx,
		leg{ref: debitRef, amount: p.Amount},
		leg{ref: creditRef, amount: credited},
		Entry{
			TxID:       p.TxID,
			FromWallet: debitRef.id,
			ToWallet:   creditRef.id,
			AssetID:    p.ToAssetID,
			Amount:     credited,
			Kind:       KindConvert,
		})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

func (e *Engine) execute(ctx context.Context, tx *sqlx.Tx, debit, credit leg, row Entry) (*Entry, error) {
	if debit.ref == credit.ref {
		return nil, ErrSameWallet
	}

	refs := []walletRef{debit.ref, credit.ref}
	sort.Slice(refs, func(i, j int) bool { return lockBefore(refs[i], refs[j]) })

	balances := make(map[walletRef]decimal.Decimal, 2)
	for _, ref := range refs {
		bal, err := lockBalance(ctx, tx, ref)
		if err != nil {
			return nil, err
		}
		balances[ref] = bal
	}

	if balances[debit.ref].LessThan(debit.amount) {
		if debit.ref.treasury {
			return nil, ErrTreasuryDepleted
		}
		return nil, ErrInsufficientFunds
	}

	if err := applyDelta(ctx, tx, debit.ref, debit.amount.Neg()); err != nil {
		return nil, err
	}
	if err := applyDelta(ctx, tx, credit.ref, credit.amount); err != nil {
		return nil, err
	}

	err := tx.QueryRowxContext(ctx,
		`INSERT INTO ledger (tx_id, from_wallet, to_wallet, asset_id, amount, kind)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		row.TxID, row.FromWallet, row.ToWallet, row.AssetID, row.Amount, row.Kind,
	).Scan(&row.ID, &row.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateTransaction
		}
		return nil, err
	}

	return &row, nil
}

func resolve(ctx context.Context, tx *sqlx.Tx, a Account, assetID int) (walletRef, error) {
	ref := walletRef{treasury: a.treasury, assetID: assetID}

	var err error
	if a.treasury {
		err = tx.GetContext(ctx, &ref.id,
			`SELECT id FROM system_wallet WHERE asset_id = $1`, assetID)
	} else {
		err = tx.GetContext(ctx, &ref.id,
			`SELECT id FROM wallets WHERE user_id = $1 AND asset_id = $2`, a.userID, assetID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return walletRef{}, ErrWalletNotFound
		}
		return walletRef{}, err
	}
	return ref, nil
}

func lockBalance(ctx context.Context, tx *sqlx.Tx, ref walletRef) (decimal.Decimal, error) {
	var bal decimal.Decimal
	var err error
	if ref.treasury {
		err = tx.GetContext(ctx, &bal,
			`SELECT balance FROM system_wallet WHERE id = $1 FOR UPDATE`, ref.id)
	} else {
		err = tx.GetContext(ctx, &bal,
			`SELECT balance FROM wallets WHERE id = $1 FOR UPDATE`, ref.id)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrWalletNotFound
		}
		return decimal.Zero, err
	}
	return bal, nil
}

func applyDelta(ctx context.Context, tx *sqlx.Tx, ref walletRef, delta decimal.Decimal) error {
	var err error
	if ref.treasury {
		_, err = tx.ExecContext(ctx,
			`UPDATE system_wallet SET balance = balance + $1 WHERE id = $2`, delta, ref.id)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE id = $2`, delta, ref.id)
	}
	return err
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	return nil
}

// IsUniqueViolation reports whether err is a postgres unique-constraint
// violation (code 23505).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

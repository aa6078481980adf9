package wallet

import (
	"context"

	"github.com/shopspring/decimal"

	"coinvault/internal/asset"
	"coinvault/internal/ledger"
	"coinvault/internal/metrics"
)

// ConvertRatio is the fixed integer conversion ratio: N units of the source
// asset become N/ConvertRatio units of the target asset. This constant is
// the single source of truth for conversions.
const ConvertRatio = 50

// TransferEngine is the slice of the ledger engine this service needs,
// satisfied by *ledger.Engine.
type TransferEngine interface {
	Transfer(ctx context.Context, p ledger.TransferParams) (*ledger.Entry, error)
	Convert(ctx context.Context, p ledger.ConvertParams) (*ledger.Entry, error)
}

// Catalog looks up item prices at purchase time, satisfied by
// *item.Repository. Prices are never cached here.
type Catalog interface {
	ItemPrice(ctx context.Context, itemID int) (decimal.Decimal, error)
}

type Service interface {
	Balances(ctx context.Context, userID int) (map[string]decimal.Decimal, error)
	AssetBalance(ctx context.Context, userID, assetID int) (decimal.Decimal, error)
	TopUp(ctx context.Context, txID string, userID, assetID int, amount decimal.Decimal) (*ledger.Entry, error)
	Bonus(ctx context.Context, txID string, userID, assetID int, amount decimal.Decimal) (*ledger.Entry, error)
	Purchase(ctx context.Context, txID string, userID, itemID int) (*ledger.Entry, decimal.Decimal, error)
	Convert(ctx context.Context, txID string, userID int, fromAsset, toAsset string, amount decimal.Decimal) (*ledger.Entry, decimal.Decimal, error)
}

type service struct {
	store    Store
	engine   TransferEngine
	catalog  Catalog
	registry *asset.Registry
}

func NewService(store Store, engine TransferEngine, catalog Catalog, registry *asset.Registry) Service {
	return &service{
		store:    store,
		engine:   engine,
		catalog:  catalog,
		registry: registry,
	}
}

// Balances returns a snapshot zero-filled for every registered asset, so a
// user missing a wallet row still reports 0 for that asset.
func (s *service) Balances(ctx context.Context, userID int) (map[string]decimal.Decimal, error) {
	rows, err := s.store.Balances(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal, len(s.registry.Names()))
	for _, name := range s.registry.Names() {
		out[name] = decimal.Zero
	}
	for _, row := range rows {
		out[row.AssetName] = row.Balance
	}
	return out, nil
}

func (s *service) AssetBalance(ctx context.Context, userID, assetID int) (decimal.Decimal, error) {
	if _, err := s.registry.Name(assetID); err != nil {
		return decimal.Zero, err
	}
	return s.store.AssetBalance(ctx, userID, assetID)
}

func (s *service) TopUp(ctx context.Context, txID string, userID, assetID int, amount decimal.Decimal) (*ledger.Entry, error) {
	return s.mint(ctx, txID, userID, assetID, amount, ledger.KindTopUp)
}

func (s *service) Bonus(ctx context.Context, txID string, userID, assetID int, amount decimal.Decimal) (*ledger.Entry, error) {
	return s.mint(ctx, txID, userID, assetID, amount, ledger.KindBonus)
}

func (s *service) mint(ctx context.Context, txID string, userID, assetID int, amount decimal.Decimal, kind ledger.Kind) (*ledger.Entry, error) {
	if _, err := s.registry.Name(assetID); err != nil {
		return nil, err
	}

	entry, err := s.engine.Transfer(ctx, ledger.TransferParams{
		TxID:    txID,
		AssetID: assetID,
		From:    ledger.TreasuryAccount(),
		To:      ledger.UserAccount(userID),
		Amount:  amount,
		Kind:    kind,
	})
	metrics.RecordTransfer(string(kind), outcome(err))
	return entry, err
}

// Purchase debits the item's Gold price from the user and credits the
// treasury. The price is read from the catalog at call time.
func (s *service) Purchase(ctx context.Context, txID string, userID, itemID int) (*ledger.Entry, decimal.Decimal, error) {
	price, err := s.catalog.ItemPrice(ctx, itemID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	goldID, err := s.registry.ID(asset.Gold)
	if err != nil {
		return nil, decimal.Zero, err
	}

	entry, err := s.engine.Transfer(ctx, ledger.TransferParams{
		TxID:    txID,
		AssetID: goldID,
		From:    ledger.UserAccount(userID),
		To:      ledger.TreasuryAccount(),
		Amount:  price,
		Kind:    ledger.KindSpend,
	})
	metrics.RecordTransfer(string(ledger.KindSpend), outcome(err))
	if err != nil {
		return nil, decimal.Zero, err
	}
	return entry, price, nil
}

// Convert exchanges amount of fromAsset for amount/ConvertRatio of toAsset
// within the caller's own wallets. Returns the credited amount.
func (s *service) Convert(ctx context.Context, txID string, userID int, fromAsset, toAsset string, amount decimal.Decimal) (*ledger.Entry, decimal.Decimal, error) {
	fromID, err := s.registry.ID(fromAsset)
	if err != nil {
		return nil, decimal.Zero, err
	}
	toID, err := s.registry.ID(toAsset)
	if err != nil {
		return nil, decimal.Zero, err
	}

	entry, err := s.engine.Convert(ctx, ledger.ConvertParams{
		TxID:        txID,
		UserID:      userID,
		FromAssetID: fromID,
		ToAssetID:   toID,
		Amount:      amount,
		Ratio:       ConvertRatio,
	})
	metrics.RecordTransfer(string(ledger.KindConvert), outcome(err))
	if err != nil {
		return nil, decimal.Zero, err
	}
	return entry, entry.Amount, nil
}

func outcome(err error) string {
	switch err {
	case nil:
		return "ok"
	case ledger.ErrInsufficientFunds:
		return "insufficient_funds"
	case ledger.ErrTreasuryDepleted:
		return "treasury_depleted"
	case ledger.ErrDuplicateTransaction:
		return "conflict"
	default:
		return "error"
	}
}

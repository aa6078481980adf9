package task

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"coinvault/internal/asset"
	"coinvault/internal/ledger"
	"coinvault/internal/metrics"
)

// RewardEngine is the in-transaction slice of the ledger engine, satisfied
// by *ledger.Engine.
type RewardEngine interface {
	TransferTx(ctx context.Context, tx *sqlx.Tx, p ledger.TransferParams) (*ledger.Entry, error)
}

// Store is the repository surface the service needs, satisfied by *Repository.
type Store interface {
	GetByID(ctx context.Context, id int) (*Task, error)
	InsertCompletionTx(ctx context.Context, tx *sqlx.Tx, userID, taskID int) error
}

type Service interface {
	// CompleteTask grants the task's Silver reward to the user at most once.
	// The completion marker and the BONUS transfer commit atomically.
	CompleteTask(ctx context.Context, txID string, userID, taskID int) (*ledger.Entry, decimal.Decimal, error)
}

type service struct {
	db       *sqlx.DB
	store    Store
	engine   RewardEngine
	registry *asset.Registry
}

func NewService(db *sqlx.DB, store Store, engine RewardEngine, registry *asset.Registry) Service {
	return &service{
		db:       db,
		store:    store,
		engine:   engine,
		registry: registry,
	}
}

func (s *service) CompleteTask(ctx context.Context, txID string, userID, taskID int) (*ledger.Entry, decimal.Decimal, error) {
	t, err := s.store.GetByID(ctx, taskID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	silverID, err := s.registry.ID(asset.Silver)
	if err != nil {
		return nil, decimal.Zero, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, decimal.Zero, err
	}
	defer tx.Rollback()

	if err := s.store.InsertCompletionTx(ctx, tx, userID, taskID); err != nil {
		return nil, decimal.Zero, err
	}

	entry, err := s.engine.TransferTx(ctx, tx, ledger.TransferParams{
		TxID:    txID,
		AssetID: silverID,
		From:    ledger.TreasuryAccount(),
		To:      ledger.UserAccount(userID),
		Amount:  t.RewardSilver,
		Kind:    ledger.KindBonus,
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return nil, decimal.Zero, err
	}

	metrics.RecordRewardGrant()
	metrics.RecordTransfer(string(ledger.KindBonus), "ok")
	return entry, t.RewardSilver, nil
}

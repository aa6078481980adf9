package ledger

import (
	"context"

	"github.com/jmoiron/sqlx"

	"coinvault/internal/db"
)

// Repository reads the journal. All writes go through the Engine so that a
// row can never appear outside a balance-mutating transaction.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(sqlxDB *sqlx.DB) *Repository {
	return &Repository{db: sqlxDB}
}

// Exists reports whether a journal entry with this idempotency token has
// already been committed. This is only a fast-path pre-check; the unique
// constraint on tx_id is what actually guarantees at-most-once.
func (r *Repository) Exists(ctx context.Context, txID string) (bool, error) {
	return db.Exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM ledger WHERE tx_id = $1)`, txID)
}

// ListByUser returns the journal entries that touched any of the user's
// wallets, newest first. The kind column disambiguates which side of the
// entry is the user's wallet.
func (r *Repository) ListByUser(ctx context.Context, userID, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT l.id, l.tx_id, l.from_wallet, l.to_wallet, l.asset_id, l.amount, l.kind, l.created_at
		FROM ledger l
		WHERE (l.kind IN ('TOPUP','BONUS','CONVERT')
		       AND l.to_wallet IN (SELECT id FROM wallets WHERE user_id = $1))
		   OR (l.kind IN ('SPEND','CONVERT')
		       AND l.from_wallet IN (SELECT id FROM wallets WHERE user_id = $1))
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

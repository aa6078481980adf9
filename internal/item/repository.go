package item

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var ErrItemNotFound = errors.New("item not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ItemPrice returns the Gold price of one item. Purchases call this at
// transfer time; prices are never cached.
func (r *Repository) ItemPrice(ctx context.Context, itemID int) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := r.db.GetContext(ctx, &price,
		`SELECT price_gold FROM items WHERE id = $1`, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrItemNotFound
		}
		return decimal.Zero, err
	}
	return price, nil
}

func (r *Repository) Create(ctx context.Context, name, category string, priceGold decimal.Decimal) (*Item, error) {
	var it Item
	err := r.db.GetContext(ctx, &it, `
		INSERT INTO items (name, category, price_gold)
		VALUES ($1, $2, $3)
		RETURNING id, name, category, price_gold, created_at
	`, name, category, priceGold)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *Repository) CreateBulk(ctx context.Context, items []Item) ([]Item, error) {
	if len(items) == 0 {
		return nil, errors.New("no items to create")
	}

	placeholders := make([]string, 0, len(items))
	values := make([]interface{}, 0, len(items)*3)
	for i, it := range items {
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3))
		values = append(values, it.Name, it.Category, it.PriceGold)
	}

	query := fmt.Sprintf(`
		INSERT INTO items (name, category, price_gold)
		VALUES %s
		RETURNING id, name, category, price_gold, created_at
	`, strings.Join(placeholders, ", "))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var created []Item
	if err := tx.SelectContext(ctx, &created, query, values...); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repository) List(ctx context.Context) ([]Item, error) {
	var items []Item
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, name, category, price_gold, created_at
		FROM items
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return items, nil
}

package item

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item categories, mirroring the catalog's CHECK constraint.
const (
	CategoryClassic = "classic"
	CategoryLegend  = "legend"
	CategoryMythic  = "mythic"
)

type Item struct {
	ID        int             `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Category  string          `db:"category" json:"category"`
	PriceGold decimal.Decimal `db:"price_gold" json:"price_gold"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

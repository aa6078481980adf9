package asset

import "time"

// Canonical asset names as seeded by the migrations. Every other package
// refers to assets by id; these names exist only at the API boundary.
const (
	Silver  = "Silver"
	Gold    = "Gold"
	Diamond = "Diamond"
)

type Asset struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

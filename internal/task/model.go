package task

import (
	"time"

	"github.com/shopspring/decimal"
)

// Task is a reward-task from the catalog; completing it pays out
// RewardSilver once per user.
type Task struct {
	ID           int             `db:"id" json:"id"`
	Title        string          `db:"title" json:"title"`
	Description  *string         `db:"description" json:"description,omitempty"`
	RewardSilver decimal.Decimal `db:"reward_silver" json:"reward_silver"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Completion marks that a user has claimed a task's reward. The
// (user_id, task_id) unique constraint is what makes the reward
// at-most-once under concurrent submissions.
type Completion struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	TaskID      int       `db:"task_id" json:"task_id"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}

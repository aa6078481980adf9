package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"coinvault/internal/ledger"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskAlreadyCompleted = errors.New("task already completed")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, title string, description *string, rewardSilver decimal.Decimal) (*Task, error) {
	var t Task
	err := r.db.GetContext(ctx, &t, `
		INSERT INTO tasks (title, description, reward_silver)
		VALUES ($1, $2, $3)
		RETURNING id, title, description, reward_silver, created_at
	`, title, description, rewardSilver)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateBulk inserts all tasks in one statement inside one transaction.
func (r *Repository) CreateBulk(ctx context.Context, tasks []Task) ([]Task, error) {
	if len(tasks) == 0 {
		return nil, errors.New("no tasks to create")
	}

	placeholders := make([]string, 0, len(tasks))
	values := make([]interface{}, 0, len(tasks)*3)
	for i, t := range tasks {
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3))
		values = append(values, t.Title, t.Description, t.RewardSilver)
	}

	query := fmt.Sprintf(`
		INSERT INTO tasks (title, description, reward_silver)
		VALUES %s
		RETURNING id, title, description, reward_silver, created_at
	`, strings.Join(placeholders, ", "))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var created []Task
	if err := tx.SelectContext(ctx, &created, query, values...); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*Task, error) {
	var t Task
	err := r.db.GetContext(ctx, &t, `
		SELECT id, title, description, reward_silver, created_at
		FROM tasks
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *Repository) List(ctx context.Context) ([]Task, error) {
	var tasks []Task
	err := r.db.SelectContext(ctx, &tasks, `
		SELECT id, title, description, reward_silver, created_at
		FROM tasks
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *Repository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// InsertCompletionTx records the completion marker inside the caller's
// transaction, so the marker and the reward transfer commit or roll back
// together. A concurrent duplicate loses on the unique constraint.
func (r *Repository) InsertCompletionTx(ctx context.Context, tx *sqlx.Tx, userID, taskID int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_task_completions (user_id, task_id)
		VALUES ($1, $2)
	`, userID, taskID)
	if err != nil {
		if ledger.IsUniqueViolation(err) {
			return ErrTaskAlreadyCompleted
		}
		return err
	}
	return nil
}

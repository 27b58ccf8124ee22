package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

const createTasksTable = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority TEXT NULL,
	is_default INTEGER NOT NULL DEFAULT 0,
	completed_at DATETIME NULL,
	deleted_at DATETIME NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTasksTable); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (int64, error) {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO tasks (user_id, title, description, priority, is_default, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.UserID,
		task.Title,
		task.Description,
		task.Priority,
		task.IsDefault,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("task last insert id: %w", err)
	}
	task.ID = id
	return id, nil
}

func (r *TaskRepository) Get(ctx context.Context, userID, taskID int64) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, title, description, priority, is_default, completed_at, deleted_at, created_at, updated_at
FROM tasks
WHERE user_id = ? AND id = ? AND deleted_at IS NULL`,
		userID,
		taskID,
	)
	task, err := scanTask(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, title, description, priority, is_default, completed_at, deleted_at, created_at, updated_at
FROM tasks
WHERE user_id = ? AND deleted_at IS NULL
ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// SetCompleted writes completed_at for the owner's task. The deleted_at
// guard keeps a racing soft delete from being overwritten; the loser of the
// race sees rows-affected zero.
func (r *TaskRepository) SetCompleted(ctx context.Context, userID, taskID int64, completedAt *time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE tasks
SET completed_at = ?, updated_at = ?
WHERE user_id = ? AND id = ? AND deleted_at IS NULL`,
		completedAt,
		time.Now().UTC(),
		userID,
		taskID,
	)
	if err != nil {
		return false, fmt.Errorf("update completed status: %w", err)
	}
	return affected(res)
}

func (r *TaskRepository) SoftDelete(ctx context.Context, userID, taskID int64, deletedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE tasks
SET deleted_at = ?, updated_at = ?
WHERE user_id = ? AND id = ? AND deleted_at IS NULL`,
		deletedAt,
		time.Now().UTC(),
		userID,
		taskID,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete task: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func scanTask(scan func(dest ...any) error) (*domain.Task, error) {
	var (
		task        domain.Task
		priority    sql.NullString
		completedAt sql.NullTime
		deletedAt   sql.NullTime
	)
	if err := scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&priority,
		&task.IsDefault,
		&completedAt,
		&deletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	if priority.Valid {
		task.Priority = &priority.String
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	if deletedAt.Valid {
		task.DeletedAt = &deletedAt.Time
	}
	return &task, nil
}

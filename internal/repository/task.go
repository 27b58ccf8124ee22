package repository

import (
	"context"
	"time"

	"todo-server/internal/domain"
)

// TaskRepository exposes persistence operations for Task records.
//
// Every mutation is a single conditional statement scoped by
// (user_id, id, deleted_at IS NULL) and reports rows-affected as its boolean
// result. The guard lives in SQL, not in application code, so two racing
// writers resolve at the row: whichever commits first wins and the loser's
// guard fails as a false/no-op.
type TaskRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, task *domain.Task) (int64, error)
	Get(ctx context.Context, userID, taskID int64) (*domain.Task, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Task, error)
	SetCompleted(ctx context.Context, userID, taskID int64, completedAt *time.Time) (bool, error)
	SoftDelete(ctx context.Context, userID, taskID int64, deletedAt time.Time) (bool, error)
}

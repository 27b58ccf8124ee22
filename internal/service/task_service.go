package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

// ErrTaskNotFound is returned when a task does not exist for the caller.
// Another user's task and a soft-deleted task look exactly the same as a
// missing one, so existence never leaks across owners.
var ErrTaskNotFound = errors.New("task not found")

// TaskService coordinates the task lifecycle for one authenticated owner.
// Mutations report whether a row was actually changed; a false result means
// the task is missing, foreign or already soft-deleted.
type TaskService interface {
	Create(ctx context.Context, userID int64, title, description string, priority *string) (*domain.Task, error)
	Get(ctx context.Context, userID, taskID int64) (*domain.Task, error)
	List(ctx context.Context, userID int64) ([]domain.Task, error)
	MarkCompleted(ctx context.Context, userID, taskID int64) (bool, error)
	MarkUncompleted(ctx context.Context, userID, taskID int64) (bool, error)
	SoftDelete(ctx context.Context, userID, taskID int64) (bool, error)
}

type taskService struct {
	tasks repository.TaskRepository
}

func NewTaskService(tasks repository.TaskRepository) TaskService {
	return &taskService{tasks: tasks}
}

func (s *taskService) Create(ctx context.Context, userID int64, title, description string, priority *string) (*domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title is required")
	}

	task := &domain.Task{
		UserID:      userID,
		Title:       title,
		Description: description,
		Priority:    priority,
	}

	if _, err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Get(ctx context.Context, userID, taskID int64) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, userID int64) ([]domain.Task, error) {
	return s.tasks.ListByUser(ctx, userID)
}

// MarkCompleted stamps the task completed. Repeating the call succeeds again
// and refreshes the timestamp.
func (s *taskService) MarkCompleted(ctx context.Context, userID, taskID int64) (bool, error) {
	now := time.Now().UTC()
	return s.tasks.SetCompleted(ctx, userID, taskID, &now)
}

func (s *taskService) MarkUncompleted(ctx context.Context, userID, taskID int64) (bool, error) {
	return s.tasks.SetCompleted(ctx, userID, taskID, nil)
}

// SoftDelete retires the task. The first call wins; everything after it,
// including a second delete, is a no-op on a row that reads as absent.
func (s *taskService) SoftDelete(ctx context.Context, userID, taskID int64) (bool, error) {
	return s.tasks.SoftDelete(ctx, userID, taskID, time.Now().UTC())
}

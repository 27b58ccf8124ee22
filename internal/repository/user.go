package repository

import (
	"context"
	"errors"

	"todo-server/internal/domain"
)

// ErrNotFound is returned by lookups when no matching live row exists.
// Soft-deleted rows are indistinguishable from absent ones.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by Create when a uniqueness constraint fails.
var ErrDuplicate = errors.New("already exists")

// UserRepository defines persistence operations for User entities. All
// lookups skip soft-deleted users.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByToken(ctx context.Context, token string) (*domain.User, error)
	// SetToken replaces the user's current session token. A nil token logs
	// the user out. The write is unconditional: concurrent logins racing on
	// the same account resolve last-writer-wins (see DESIGN.md).
	SetToken(ctx context.Context, userID int64, token *string) error
}

package domain

import "time"

// Task is a single todo item owned by exactly one user.
//
// CompletedAt is nil while the task is active and set while it is completed;
// the owner toggles freely between the two. DeletedAt is nil while the task
// is visible; once set the task is terminally gone from every read and no
// mutation touches the row again.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Priority    *string
	IsDefault   bool
	CompletedAt *time.Time
	DeletedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Completed reports whether the task is currently marked done.
func (t Task) Completed() bool {
	return t.CompletedAt != nil
}

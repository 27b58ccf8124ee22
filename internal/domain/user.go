package domain

import "time"

// User represents a registered account. SessionToken holds the single
// currently valid token for the account, or nil when logged out.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	SessionToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

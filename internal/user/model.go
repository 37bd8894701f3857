package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailAlreadyUsed   = errors.New("email already used")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordTooShort   = errors.New("password is too short")
)

// User is a CMS account. Whether it may use the admin API is decided by the
// admin allow-list, not by the account itself.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  *string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	IsActive     bool
}

// UserFilter defines filter options for listing users.
type UserFilter struct {
	Email    string
	IsActive *bool // Use pointer to distinguish between false and nil (not set)

	Page      int
	PageSize  int
	SortOrder string
}

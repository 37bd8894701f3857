package admin

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("admin not found")
	ErrAlreadyAdmin = errors.New("email is already an admin")
	ErrStaticAdmin  = errors.New("configured admins cannot be removed")
	ErrInvalidEmail = errors.New("a valid email is required")
	ErrRemoveSelf   = errors.New("cannot remove your own admin access")
)

// Admin is an entry on the allow-list. Static entries come from
// configuration and have no AddedBy or CreatedAt.
type Admin struct {
	Email     string
	AddedBy   string
	CreatedAt time.Time
	Static    bool
}

package testimonial

import (
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("testimonial not found")
	ErrNameRequired        = errors.New("name is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrInvalidEmail        = errors.New("email is not a valid address")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrInvalidStatus       = errors.New("status must be pending, published or archived")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPublished, StatusArchived:
		return true
	}
	return false
}

const (
	MinRating = 1
	MaxRating = 5
)

// Testimonial is a client review submitted through the public site.
type Testimonial struct {
	ID          string
	Name        string
	Email       string
	Description string
	Rating      int
	Status      Status
	CreatedAt   time.Time
	PublishedAt *time.Time
	ArchivedAt  *time.Time
}

// Filter defines parameters for listing testimonials.
type Filter struct {
	Status    Status // empty means any status
	Page      int
	PageSize  int
	SortOrder string
}

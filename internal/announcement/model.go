package announcement

import (
	"errors"
	"time"

	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/content"
)

var (
	ErrNotFound        = errors.New("announcement not found")
	ErrTitleRequired   = errors.New("title is required")
	ErrContentRequired = errors.New("content is required")
	ErrInvalidStatus   = errors.New("status must be active or inactive")
	ErrInvalidSlug     = errors.New("slug must be 1-50 lowercase letters, digits or hyphens without leading or trailing hyphen")
	ErrSlugTaken       = errors.New("slug is already used by another announcement")
	ErrNoMain          = errors.New("no active main announcement")
)

// Status is the publication switch of an announcement.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Announcement represents a news item or notice shown on the website.
type Announcement struct {
	ID               string
	Title            content.Text
	ShortDescription content.Text
	Content          content.Text
	BannerImage      string
	Status           Status
	ShowOnMain       bool
	ScheduledDate    *time.Time
	Slug             string
	Dismissible      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Visibility narrows a listing by schedule.
type Visibility string

const (
	VisibilityAll       Visibility = "all"
	VisibilityActive    Visibility = "active"
	VisibilityScheduled Visibility = "scheduled"
)

// Filter defines parameters for listing announcements.
type Filter struct {
	Keyword    string
	Status     Status // empty means any status
	Visibility Visibility
	Now        time.Time
	Page       int
	PageSize   int
	SortOrder  string
}

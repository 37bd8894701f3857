package testimonial

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nekogravitycat/visa-cms-backend/internal/metrics"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/sanitize"
)

type SubmitRequest struct {
	Name        string
	Email       string
	Description string
	Rating      int
}

type Service interface {
	// Submit stores a public submission as pending.
	Submit(ctx context.Context, req SubmitRequest) (*Testimonial, error)
	// Import stores a testimonial carried over from another system, keeping
	// its status and timestamps.
	Import(ctx context.Context, t *Testimonial) (*Testimonial, error)
	GetByID(ctx context.Context, id string) (*Testimonial, error)
	List(ctx context.Context, filter Filter) ([]*Testimonial, int, error)
	ListPublished(ctx context.Context, page, pageSize int) ([]*Testimonial, int, error)
	SetStatus(ctx context.Context, id string, status Status) (*Testimonial, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo     Repository
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:     repo,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *service) Submit(ctx context.Context, req SubmitRequest) (*Testimonial, error) {
	t := &Testimonial{
		Name:        sanitize.PlainText(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Description: sanitize.PlainText(req.Description),
		Rating:      req.Rating,
		Status:      StatusPending,
	}

	if err := s.check(t); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	metrics.IncTestimonialSubmission()
	s.logger.Info("testimonial submitted", zap.String("id", t.ID), zap.Int("rating", t.Rating))
	return t, nil
}

func (s *service) check(t *Testimonial) error {
	if t.Name == "" {
		return ErrNameRequired
	}
	if err := s.validate.Var(t.Email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	if t.Description == "" {
		return ErrDescriptionRequired
	}
	if t.Rating < MinRating || t.Rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

func (s *service) Import(ctx context.Context, in *Testimonial) (*Testimonial, error) {
	t := &Testimonial{
		Name:        sanitize.PlainText(in.Name),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Description: sanitize.PlainText(in.Description),
		Rating:      in.Rating,
		Status:      in.Status,
		CreatedAt:   in.CreatedAt,
		PublishedAt: in.PublishedAt,
		ArchivedAt:  in.ArchivedAt,
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if !t.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := s.check(t); err != nil {
		return nil, err
	}

	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	switch {
	case t.Status == StatusPublished && t.PublishedAt == nil:
		t.PublishedAt = &t.CreatedAt
	case t.Status == StatusArchived && t.ArchivedAt == nil:
		t.ArchivedAt = &t.CreatedAt
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Testimonial, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Testimonial, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	return s.repo.List(ctx, filter)
}

func (s *service) ListPublished(ctx context.Context, page, pageSize int) ([]*Testimonial, int, error) {
	return s.repo.List(ctx, Filter{
		Status:    StatusPublished,
		Page:      page,
		PageSize:  pageSize,
		SortOrder: "DESC",
	})
}

// SetStatus moves a testimonial to any of the three statuses. Entering
// published or archived stamps the matching timestamp; earlier stamps are kept.
func (s *service) SetStatus(ctx context.Context, id string, status Status) (*Testimonial, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == status {
		return t, nil
	}

	now := s.now().UTC()
	t.Status = status
	switch status {
	case StatusPublished:
		t.PublishedAt = &now
	case StatusArchived:
		t.ArchivedAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Service decides admin access and manages runtime additions to the
// allow-list.
type Service interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]*Admin, error)
	Add(ctx context.Context, email, addedBy string) (*Admin, error)
	Remove(ctx context.Context, email, removedBy string) error
}

type service struct {
	repo     Repository
	static   []string
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService builds the authorizer. staticEmails are always admins and are
// compared case-insensitively.
func NewService(repo Repository, staticEmails []string, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	static := make([]string, 0, len(staticEmails))
	for _, e := range staticEmails {
		if e = normalize(e); e != "" && !slices.Contains(static, e) {
			static = append(static, e)
		}
	}

	return &service{
		repo:     repo,
		static:   static,
		validate: validator.New(),
		logger:   logger,
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) isStatic(email string) bool {
	return slices.Contains(s.static, email)
}

func (s *service) IsAdmin(ctx context.Context, email string) (bool, error) {
	email = normalize(email)
	if email == "" {
		return false, nil
	}
	if s.isStatic(email) {
		return true, nil
	}
	return s.repo.Exists(ctx, email)
}

// List returns the static admins first, then runtime additions in the order
// they were added.
func (s *service) List(ctx context.Context) ([]*Admin, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Admin, 0, len(s.static)+len(stored))
	for _, e := range s.static {
		out = append(out, &Admin{Email: e, Static: true})
	}
	for _, a := range stored {
		if !s.isStatic(a.Email) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *service) Add(ctx context.Context, email, addedBy string) (*Admin, error) {
	email = normalize(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}
	if s.isStatic(email) {
		return nil, ErrAlreadyAdmin
	}

	a := &Admin{Email: email, AddedBy: normalize(addedBy)}
	if err := s.repo.Add(ctx, a); err != nil {
		if errors.Is(err, ErrAlreadyAdmin) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add admin: %w", err)
	}

	s.logger.Info("admin added", zap.String("email", email), zap.String("added_by", a.AddedBy))
	return a, nil
}

func (s *service) Remove(ctx context.Context, email, removedBy string) error {
	email = normalize(email)
	if s.isStatic(email) {
		return ErrStaticAdmin
	}
	if email == normalize(removedBy) {
		return ErrRemoveSelf
	}

	if err := s.repo.Remove(ctx, email); err != nil {
		return err
	}

	s.logger.Info("admin removed", zap.String("email", email), zap.String("removed_by", normalize(removedBy)))
	return nil
}

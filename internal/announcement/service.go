package announcement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/visa-cms-backend/internal/cache"
	"github.com/nekogravitycat/visa-cms-backend/internal/metrics"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/content"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/sanitize"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/slug"
)

// ErrNotActive is returned when an inactive announcement is promoted to the main page.
var ErrNotActive = errors.New("only active announcements can be shown on the main page")

// MainCacheKey holds the resolved main announcement (or the absence of one).
const MainCacheKey = "announcement:main"

const fallbackSlugBase = "announcement"

type CreateRequest struct {
	Title            content.Text
	ShortDescription content.Text
	Content          content.Text
	BannerImage      string
	Status           Status
	ShowOnMain       bool
	ScheduledDate    *time.Time
	Slug             string // optional; generated from the title when empty
	Dismissible      bool
	CreatedAt        time.Time // zero means now; set when importing
}

type UpdateRequest struct {
	Title              *content.Text
	ShortDescription   *content.Text
	Content            *content.Text
	BannerImage        *string
	Status             *Status
	ShowOnMain         *bool
	ScheduledDate      *time.Time
	ClearScheduledDate bool
	Slug               *string
	Dismissible        *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Announcement, error)
	GetByID(ctx context.Context, id string) (*Announcement, error)
	GetBySlug(ctx context.Context, slug string) (*Announcement, error)
	// ResolveSlugOrID looks the key up as a slug first and as an id when it
	// parses as a UUID.
	ResolveSlugOrID(ctx context.Context, key string) (*Announcement, error)
	List(ctx context.Context, filter Filter) ([]*Announcement, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Announcement, error)
	Delete(ctx context.Context, id string) error
	ToggleStatus(ctx context.Context, id string) (*Announcement, error)
	SetMain(ctx context.Context, id string) (*Announcement, error)
	ClearMain(ctx context.Context, id string) (*Announcement, error)
	// GetMain returns the announcement currently featured on the main page.
	GetMain(ctx context.Context) (*Announcement, error)
	// PublishDue reports the announcements whose schedule passed in (from, to]
	// and refreshes the main announcement cache when there are any.
	PublishDue(ctx context.Context, from, to time.Time) ([]*Announcement, error)
	InvalidateMain(ctx context.Context)
}

type Option func(*service)

// WithCache sets the cache used for the main announcement.
func WithCache(c cache.Cacher, ttl time.Duration) Option {
	return func(s *service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) { s.logger = logger }
}

type service struct {
	repo     Repository
	cache    cache.Cacher
	cacheTTL time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(repo Repository, opts ...Option) Service {
	s := &service{
		repo:     repo,
		cacheTTL: 5 * time.Minute,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func cleanTitle(t content.Text) content.Text {
	return t.Map(sanitize.PlainText)
}

func cleanBody(t content.Text) content.Text {
	return t.Map(sanitize.RichText)
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Announcement, error) {
	title := cleanTitle(req.Title)
	if title.IsEmpty() {
		return nil, ErrTitleRequired
	}
	body := cleanBody(req.Content)
	if body.IsEmpty() {
		return nil, ErrContentRequired
	}

	status := req.Status
	if status == "" {
		status = StatusInactive
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if req.ShowOnMain && status != StatusActive {
		return nil, ErrNotActive
	}

	a := &Announcement{
		Title:            title,
		ShortDescription: cleanTitle(req.ShortDescription),
		Content:          body,
		BannerImage:      req.BannerImage,
		Status:           status,
		ShowOnMain:       req.ShowOnMain,
		ScheduledDate:    normalizeSchedule(req.ScheduledDate),
		Dismissible:      req.Dismissible,
	}
	if !req.CreatedAt.IsZero() {
		a.CreatedAt = req.CreatedAt.UTC()
	}

	var err error
	if req.Slug != "" {
		if !slug.IsValid(req.Slug) {
			return nil, ErrInvalidSlug
		}
		a.Slug = req.Slug
	} else if a.Slug, err = s.uniqueSlug(ctx, title, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("announcement created", zap.String("id", a.ID), zap.String("slug", a.Slug))
	s.InvalidateMain(ctx)
	return a, nil
}

func normalizeSchedule(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// uniqueSlug derives a slug from the title and suffixes it until no other
// announcement than excludeID uses it.
func (s *service) uniqueSlug(ctx context.Context, title content.Text, excludeID string) (string, error) {
	base := slug.Generate(title.SlugSource())
	if base == "" {
		base = fallbackSlugBase
	}

	existing, err := s.repo.ListSlugsWithPrefix(ctx, base, excludeID)
	if err != nil {
		return "", err
	}

	result := slug.GenerateUnique(base, existing)
	if result != base {
		metrics.IncSlugCollision()
	}
	return result, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Announcement, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Announcement, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *service) ResolveSlugOrID(ctx context.Context, key string) (*Announcement, error) {
	a, err := s.repo.GetBySlug(ctx, key)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if _, parseErr := uuid.Parse(key); parseErr != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, key)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Announcement, int, error) {
	if filter.Visibility == "" {
		filter.Visibility = VisibilityAll
	}
	if filter.Now.IsZero() {
		filter.Now = s.now()
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Announcement, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	titleChanged := false
	if req.Title != nil {
		title := cleanTitle(*req.Title)
		if title.IsEmpty() {
			return nil, ErrTitleRequired
		}
		titleChanged = title.SlugSource() != a.Title.SlugSource()
		a.Title = title
	}
	if req.ShortDescription != nil {
		a.ShortDescription = cleanTitle(*req.ShortDescription)
	}
	if req.Content != nil {
		body := cleanBody(*req.Content)
		if body.IsEmpty() {
			return nil, ErrContentRequired
		}
		a.Content = body
	}
	if req.BannerImage != nil {
		a.BannerImage = *req.BannerImage
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		a.Status = *req.Status
	}
	if req.ShowOnMain != nil {
		a.ShowOnMain = *req.ShowOnMain
	}
	if a.ShowOnMain && a.Status != StatusActive {
		if req.ShowOnMain != nil && *req.ShowOnMain {
			return nil, ErrNotActive
		}
		// deactivating a featured announcement also takes it off the main page
		a.ShowOnMain = false
	}
	if req.ClearScheduledDate {
		a.ScheduledDate = nil
	} else if req.ScheduledDate != nil {
		a.ScheduledDate = normalizeSchedule(req.ScheduledDate)
	}
	if req.Dismissible != nil {
		a.Dismissible = *req.Dismissible
	}

	switch {
	case req.Slug != nil && *req.Slug != a.Slug:
		if !slug.IsValid(*req.Slug) {
			return nil, ErrInvalidSlug
		}
		a.Slug = *req.Slug
	case req.Slug == nil && (titleChanged || a.Slug == ""):
		if a.Slug, err = s.uniqueSlug(ctx, a.Title, a.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	s.InvalidateMain(ctx)
	return a, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("announcement deleted", zap.String("id", id))
	s.InvalidateMain(ctx)
	return nil
}

func (s *service) ToggleStatus(ctx context.Context, id string) (*Announcement, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := StatusActive
	if a.Status == StatusActive {
		next = StatusInactive
	}
	if err := s.repo.SetStatus(ctx, id, next); err != nil {
		return nil, err
	}
	a.Status = next

	if next == StatusInactive && a.ShowOnMain {
		if err := s.repo.ClearMain(ctx, id); err != nil {
			return nil, err
		}
		a.ShowOnMain = false
	}

	s.InvalidateMain(ctx)
	return a, nil
}

func (s *service) SetMain(ctx context.Context, id string) (*Announcement, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusActive {
		return nil, ErrNotActive
	}

	if err := s.repo.SetMain(ctx, id); err != nil {
		return nil, err
	}
	a.ShowOnMain = true

	s.logger.Info("main announcement changed", zap.String("id", id))
	s.InvalidateMain(ctx)
	return a, nil
}

func (s *service) ClearMain(ctx context.Context, id string) (*Announcement, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ClearMain(ctx, id); err != nil {
		return nil, err
	}
	a.ShowOnMain = false

	s.InvalidateMain(ctx)
	return a, nil
}

// mainCacheEntry is the cached form of the main announcement lookup.
// An entry without an ID records that nothing qualified.
type mainCacheEntry struct {
	ID string `json:"id,omitempty"`
}

func (s *service) GetMain(ctx context.Context) (*Announcement, error) {
	if a, ok := s.mainFromCache(ctx); ok {
		if a == nil {
			metrics.IncMainLookup("cache", "none")
			return nil, ErrNoMain
		}
		metrics.IncMainLookup("cache", "found")
		return a, nil
	}

	candidates, err := s.repo.ListMainCandidates(ctx)
	if err != nil {
		return nil, err
	}

	selected := ResolveActive(candidates, s.now())
	s.storeMain(ctx, selected)

	if selected == nil {
		metrics.IncMainLookup("store", "none")
		return nil, ErrNoMain
	}
	metrics.IncMainLookup("store", "found")
	return selected, nil
}

// mainFromCache returns (nil, true) for a cached "none". A cached id whose
// record has gone missing counts as a miss.
func (s *service) mainFromCache(ctx context.Context) (*Announcement, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, MainCacheKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("main announcement cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var entry mainCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("discarding malformed main announcement cache entry", zap.Error(err))
		return nil, false
	}
	if entry.ID == "" {
		return nil, true
	}

	a, err := s.repo.GetByID(ctx, entry.ID)
	if err != nil {
		return nil, false
	}
	if !a.ShowOnMain || !IsPublished(a, s.now()) {
		return nil, false
	}
	return a, true
}

func (s *service) storeMain(ctx context.Context, a *Announcement) {
	if s.cache == nil {
		return
	}

	var entry mainCacheEntry
	if a != nil {
		entry.ID = a.ID
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, MainCacheKey, raw, s.cacheTTL); err != nil {
		s.logger.Warn("main announcement cache write failed", zap.Error(err))
	}
}

func (s *service) InvalidateMain(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, MainCacheKey); err != nil {
		s.logger.Warn("main announcement cache invalidation failed", zap.Error(err))
	}
}

func (s *service) PublishDue(ctx context.Context, from, to time.Time) ([]*Announcement, error) {
	if !to.After(from) {
		return nil, nil
	}

	due, err := s.repo.ListDueScheduled(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list due announcements: %w", err)
	}
	if len(due) == 0 {
		return nil, nil
	}

	s.InvalidateMain(ctx)
	metrics.AddScheduledPublications(len(due))
	for _, a := range due {
		s.logger.Info("scheduled announcement published",
			zap.String("id", a.ID),
			zap.String("slug", a.Slug),
			zap.Time("scheduled_date", *a.ScheduledDate),
		)
	}
	return due, nil
}

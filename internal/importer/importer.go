// Package importer loads a Firestore JSON export into the CMS.
//
// The export is one object with an "announcements" and a "testimonials"
// array. Field names follow the Firestore documents (camelCase); date fields
// may use any shape the timestamp package accepts.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/visa-cms-backend/internal/announcement"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/content"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/slug"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/timestamp"
	"github.com/nekogravitycat/visa-cms-backend/internal/testimonial"
)

// Export holds the raw records of an export document. Records are decoded
// one at a time during Run so a single malformed document only skips itself.
type Export struct {
	Announcements []json.RawMessage `json:"announcements"`
	Testimonials  []json.RawMessage `json:"testimonials"`
}

type AnnouncementDoc struct {
	ID               string          `json:"id"`
	Title            json.RawMessage `json:"title"`
	ShortDescription json.RawMessage `json:"shortDescription"`
	Content          json.RawMessage `json:"content"`
	BannerImage      string          `json:"bannerImage"`
	Status           string          `json:"status"`
	ShowOnMain       bool            `json:"showOnMain"`
	ScheduledDate    json.RawMessage `json:"scheduledDate"`
	Slug             string          `json:"slug"`
	Dismissible      *bool           `json:"dismissible"`
	CreatedAt        json.RawMessage `json:"createdAt"`
}

type TestimonialDoc struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Description string          `json:"description"`
	Rating      int             `json:"rating"`
	Status      string          `json:"status"`
	CreatedAt   json.RawMessage `json:"createdAt"`
	PublishedAt json.RawMessage `json:"publishedAt"`
	ArchivedAt  json.RawMessage `json:"archivedAt"`
}

// Report counts what an import did.
type Report struct {
	Announcements int
	Testimonials  int
	Skipped       int
}

type Importer struct {
	announcements announcement.Service
	testimonials  testimonial.Service
	logger        *zap.Logger
	now           func() time.Time
	dryRun        bool
}

type Option func(*Importer)

// DryRun decodes the export and reports what would be written, without
// calling the services. Records the services would reject are still counted.
func DryRun() Option {
	return func(i *Importer) { i.dryRun = true }
}

func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

func New(announcements announcement.Service, testimonials testimonial.Service, logger *zap.Logger, opts ...Option) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	i := &Importer{
		announcements: announcements,
		testimonials:  testimonials,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Decode reads an export document.
func Decode(r io.Reader) (*Export, error) {
	var e Export
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return &e, nil
}

// Run imports every record of e. Invalid records are logged and skipped;
// only store failures abort the run.
func (i *Importer) Run(ctx context.Context, e *Export) (Report, error) {
	var report Report
	now := i.now()

	reqs := make([]announcement.CreateRequest, 0, len(e.Announcements))
	for n, raw := range e.Announcements {
		var doc AnnouncementDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			i.logger.Warn("skipping malformed announcement", zap.Int("index", n), zap.Error(err))
			report.Skipped++
			continue
		}
		req, err := toCreateRequest(doc, now)
		if err != nil {
			i.logger.Warn("skipping announcement", zap.String("source_id", doc.ID), zap.Error(err))
			report.Skipped++
			continue
		}
		reqs = append(reqs, req)
	}

	// Oldest first, so a later main announcement demotes an earlier one and
	// the newest flagged record ends up featured.
	sort.SliceStable(reqs, func(a, b int) bool {
		return reqs[a].CreatedAt.Before(reqs[b].CreatedAt)
	})

	for _, req := range reqs {
		if i.dryRun {
			report.Announcements++
			continue
		}
		created, err := i.createAnnouncement(ctx, req)
		if err != nil {
			if isRecordError(err) {
				i.logger.Warn("skipping announcement", zap.String("slug", req.Slug), zap.Error(err))
				report.Skipped++
				continue
			}
			return report, err
		}
		i.logger.Debug("imported announcement", zap.String("id", created.ID), zap.String("slug", created.Slug))
		report.Announcements++
	}

	for n, raw := range e.Testimonials {
		var doc TestimonialDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			i.logger.Warn("skipping malformed testimonial", zap.Int("index", n), zap.Error(err))
			report.Skipped++
			continue
		}
		t := toTestimonial(doc, now)
		if i.dryRun {
			report.Testimonials++
			continue
		}
		if _, err := i.testimonials.Import(ctx, t); err != nil {
			if isRecordError(err) {
				i.logger.Warn("skipping testimonial", zap.String("source_id", doc.ID), zap.Error(err))
				report.Skipped++
				continue
			}
			return report, err
		}
		report.Testimonials++
	}

	i.logger.Info("import finished",
		zap.Int("announcements", report.Announcements),
		zap.Int("testimonials", report.Testimonials),
		zap.Int("skipped", report.Skipped),
		zap.Bool("dry_run", i.dryRun),
	)
	return report, nil
}

// createAnnouncement keeps the source slug when it is valid and free, and
// falls back to one generated from the title otherwise.
func (i *Importer) createAnnouncement(ctx context.Context, req announcement.CreateRequest) (*announcement.Announcement, error) {
	if req.Slug != "" {
		created, err := i.announcements.Create(ctx, req)
		if !errors.Is(err, announcement.ErrSlugTaken) {
			return created, err
		}
		i.logger.Info("source slug taken, regenerating", zap.String("slug", req.Slug))
		req.Slug = ""
	}
	return i.announcements.Create(ctx, req)
}

func isRecordError(err error) bool {
	for _, target := range []error{
		announcement.ErrTitleRequired,
		announcement.ErrContentRequired,
		announcement.ErrInvalidStatus,
		announcement.ErrInvalidSlug,
		announcement.ErrNotActive,
		testimonial.ErrNameRequired,
		testimonial.ErrDescriptionRequired,
		testimonial.ErrInvalidEmail,
		testimonial.ErrInvalidRating,
		testimonial.ErrInvalidStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func toCreateRequest(doc AnnouncementDoc, now time.Time) (announcement.CreateRequest, error) {
	var scheduled *time.Time
	t, err := timestamp.Parse(doc.ScheduledDate)
	switch {
	case err == nil:
		scheduled = &t
	case errors.Is(err, timestamp.ErrNull):
	default:
		return announcement.CreateRequest{}, fmt.Errorf("scheduledDate: %w", err)
	}

	status := announcement.Status(doc.Status)
	if status == "" {
		status = announcement.StatusInactive
	}

	dismissible := true
	if doc.Dismissible != nil {
		dismissible = *doc.Dismissible
	}

	req := announcement.CreateRequest{
		Title:            content.Decode(doc.Title),
		ShortDescription: content.Decode(doc.ShortDescription),
		Content:          content.Decode(doc.Content),
		BannerImage:      doc.BannerImage,
		Status:           status,
		ShowOnMain:       doc.ShowOnMain && status == announcement.StatusActive,
		ScheduledDate:    scheduled,
		Dismissible:      dismissible,
		CreatedAt:        timestamp.OrNow(doc.CreatedAt, now),
	}
	if slug.IsValid(doc.Slug) {
		req.Slug = doc.Slug
	}
	return req, nil
}

func toTestimonial(doc TestimonialDoc, now time.Time) *testimonial.Testimonial {
	return &testimonial.Testimonial{
		Name:        doc.Name,
		Email:       doc.Email,
		Description: doc.Description,
		Rating:      doc.Rating,
		Status:      testimonial.Status(doc.Status),
		CreatedAt:   timestamp.OrNow(doc.CreatedAt, now),
		PublishedAt: optional(doc.PublishedAt),
		ArchivedAt:  optional(doc.ArchivedAt),
	}
}

func optional(raw json.RawMessage) *time.Time {
	t, err := timestamp.Parse(raw)
	if err != nil {
		return nil
	}
	return &t
}

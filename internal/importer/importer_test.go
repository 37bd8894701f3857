package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/visa-cms-backend/internal/announcement"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/content"
	"github.com/nekogravitycat/visa-cms-backend/internal/testimonial"
)

type recordingAnnouncements struct {
	announcement.Service
	taken    map[string]bool
	requests []announcement.CreateRequest
	err      error
}

func (r *recordingAnnouncements) Create(_ context.Context, req announcement.CreateRequest) (*announcement.Announcement, error) {
	if r.err != nil {
		return nil, r.err
	}
	if req.Slug != "" && r.taken[req.Slug] {
		return nil, announcement.ErrSlugTaken
	}
	r.requests = append(r.requests, req)
	return &announcement.Announcement{ID: uuid.NewString(), Slug: req.Slug}, nil
}

type recordingTestimonials struct {
	testimonial.Service
	imported []*testimonial.Testimonial
}

func (r *recordingTestimonials) Import(_ context.Context, t *testimonial.Testimonial) (*testimonial.Testimonial, error) {
	if t.Rating < testimonial.MinRating || t.Rating > testimonial.MaxRating {
		return nil, testimonial.ErrInvalidRating
	}
	r.imported = append(r.imported, t)
	return t, nil
}

var fixedNow = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

const exportJSON = `{
  "announcements": [
    {
      "id": "newer",
      "title": {"English": "Office Closed", "Indonesia": "Kantor Tutup"},
      "content": "<p>Closed for holiday</p>",
      "status": "active",
      "showOnMain": true,
      "slug": "office-closed",
      "scheduledDate": null,
      "createdAt": {"_seconds": 1704067200, "_nanoseconds": 0}
    },
    {
      "id": "older",
      "title": "Visa Promo",
      "content": "Promo body",
      "status": "active",
      "showOnMain": true,
      "dismissible": false,
      "scheduledDate": {"seconds": 1767225600, "nanoseconds": 0},
      "createdAt": "2023-06-01T00:00:00Z"
    },
    {
      "id": "broken-date",
      "title": "Broken",
      "content": "Body",
      "scheduledDate": "next tuesday",
      "createdAt": "2023-01-01"
    },
    {
      "id": "inactive-main",
      "title": "Draft",
      "content": "Body",
      "status": "inactive",
      "showOnMain": true,
      "slug": "Not A Slug",
      "createdAt": "garbage"
    }
  ],
  "testimonials": [
    {"id": "t1", "name": "Sari", "email": "sari@example.com", "description": "Great", "rating": 5, "status": "published", "createdAt": 1700000000000},
    {"id": "t2", "name": "Bad", "email": "bad@example.com", "description": "x", "rating": 0}
  ]
}`

func runImport(t *testing.T, ann *recordingAnnouncements, opts ...Option) (*recordingTestimonials, Report) {
	t.Helper()
	export, err := Decode(strings.NewReader(exportJSON))
	require.NoError(t, err)

	tst := &recordingTestimonials{}
	opts = append(opts, WithClock(func() time.Time { return fixedNow }))
	report, err := New(ann, tst, nil, opts...).Run(context.Background(), export)
	require.NoError(t, err)
	return tst, report
}

func TestRun(t *testing.T) {
	ann := &recordingAnnouncements{}
	tst, report := runImport(t, ann)

	assert.Equal(t, Report{Announcements: 3, Testimonials: 1, Skipped: 2}, report)
	require.Len(t, ann.requests, 3)

	// oldest first: older (2023-06), newer (2024-01), then the draft whose
	// malformed createdAt became now
	older, newer, draft := ann.requests[0], ann.requests[1], ann.requests[2]

	assert.Equal(t, content.Plain("Visa Promo"), older.Title)
	assert.Empty(t, older.Slug)
	assert.False(t, older.Dismissible)
	require.NotNil(t, older.ScheduledDate)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *older.ScheduledDate)

	assert.Equal(t, "office-closed", newer.Slug)
	assert.Equal(t, "Office Closed", newer.Title.In(content.English))
	assert.Nil(t, newer.ScheduledDate)
	assert.True(t, newer.Dismissible)
	assert.True(t, newer.ShowOnMain)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), newer.CreatedAt)

	assert.Equal(t, fixedNow, draft.CreatedAt)
	assert.False(t, draft.ShowOnMain, "inactive records are never featured")
	assert.Empty(t, draft.Slug, "invalid source slug is regenerated")

	require.Len(t, tst.imported, 1)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), tst.imported[0].CreatedAt)
	assert.Equal(t, testimonial.StatusPublished, tst.imported[0].Status)
}

func TestRun_TakenSlugIsRegenerated(t *testing.T) {
	ann := &recordingAnnouncements{taken: map[string]bool{"office-closed": true}}
	_, report := runImport(t, ann)

	assert.Equal(t, 3, report.Announcements)
	for _, req := range ann.requests {
		assert.NotEqual(t, "office-closed", req.Slug)
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	ann := &recordingAnnouncements{}
	tst, report := runImport(t, ann, DryRun())

	assert.Equal(t, 3, report.Announcements)
	assert.Equal(t, 2, report.Testimonials)
	assert.Equal(t, 1, report.Skipped, "only the unparseable scheduledDate; rating checks happen in the service")
	assert.Empty(t, ann.requests)
	assert.Empty(t, tst.imported)
}

func TestRun_StoreErrorAborts(t *testing.T) {
	export, err := Decode(strings.NewReader(exportJSON))
	require.NoError(t, err)

	storeErr := errors.New("connection refused")
	_, err = New(&recordingAnnouncements{err: storeErr}, &recordingTestimonials{}, nil).Run(context.Background(), export)
	assert.ErrorIs(t, err, storeErr)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"announcements": 3}`))
	assert.Error(t, err)
}

func TestRun_MalformedRecordIsSkipped(t *testing.T) {
	const mixed = `{
  "announcements": [
    {"id": "ok", "title": "Fine", "content": "Body", "status": "active"},
    {"id": "bad-flag", "title": "Bad", "content": "Body", "showOnMain": "true"}
  ],
  "testimonials": [
    {"id": "t1", "name": "Sari", "description": "Great", "rating": 5},
    {"id": "t2", "name": "Dewi", "description": "Good", "rating": "5"}
  ]
}`
	export, err := Decode(strings.NewReader(mixed))
	require.NoError(t, err)

	ann := &recordingAnnouncements{}
	tst := &recordingTestimonials{}
	report, err := New(ann, tst, nil, WithClock(func() time.Time { return fixedNow })).Run(context.Background(), export)
	require.NoError(t, err)

	assert.Equal(t, Report{Announcements: 1, Testimonials: 1, Skipped: 2}, report)
	require.Len(t, ann.requests, 1)
	assert.Equal(t, content.Plain("Fine"), ann.requests[0].Title)
	require.Len(t, tst.imported, 1)
	assert.Equal(t, "Sari", tst.imported[0].Name)
}

package testimonial

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	records map[string]*Testimonial
	creates int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{records: make(map[string]*Testimonial)}
}

func (r *fakeRepository) Create(_ context.Context, t *Testimonial) error {
	r.creates++
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	c := *t
	r.records[t.ID] = &c
	return nil
}

func (r *fakeRepository) GetByID(_ context.Context, id string) (*Testimonial, error) {
	t, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r *fakeRepository) List(_ context.Context, f Filter) ([]*Testimonial, int, error) {
	var out []*Testimonial
	for _, t := range r.records {
		if f.Status == "" || t.Status == f.Status {
			c := *t
			out = append(out, &c)
		}
	}
	return out, len(out), nil
}

func (r *fakeRepository) UpdateStatus(_ context.Context, t *Testimonial) error {
	if _, ok := r.records[t.ID]; !ok {
		return ErrNotFound
	}
	c := *t
	r.records[t.ID] = &c
	return nil
}

func (r *fakeRepository) Delete(_ context.Context, id string) error {
	if _, ok := r.records[id]; !ok {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func validSubmit() SubmitRequest {
	return SubmitRequest{
		Name:        "Ayu",
		Email:       " Ayu@Example.com ",
		Description: "Fast and friendly visa processing.",
		Rating:      5,
	}
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("stores pending submission", func(t *testing.T) {
		repo := newFakeRepository()
		svc := NewService(repo, nil)

		got, err := svc.Submit(ctx, validSubmit())
		require.NoError(t, err)
		assert.Equal(t, StatusPending, got.Status)
		assert.Equal(t, "ayu@example.com", got.Email)
		assert.NotEmpty(t, got.ID)
	})

	t.Run("strips markup", func(t *testing.T) {
		svc := NewService(newFakeRepository(), nil)
		req := validSubmit()
		req.Description = `<a href="http://spam">Great</a> service & support`
		got, err := svc.Submit(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "Great service & support", got.Description)
	})

	tests := []struct {
		name   string
		mutate func(*SubmitRequest)
		want   error
	}{
		{"missing name", func(r *SubmitRequest) { r.Name = "  " }, ErrNameRequired},
		{"markup-only name", func(r *SubmitRequest) { r.Name = "<script>x</script>" }, ErrNameRequired},
		{"bad email", func(r *SubmitRequest) { r.Email = "not-an-email" }, ErrInvalidEmail},
		{"missing description", func(r *SubmitRequest) { r.Description = "" }, ErrDescriptionRequired},
		{"rating too low", func(r *SubmitRequest) { r.Rating = 0 }, ErrInvalidRating},
		{"rating too high", func(r *SubmitRequest) { r.Rating = 6 }, ErrInvalidRating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			svc := NewService(repo, nil)
			req := validSubmit()
			tt.mutate(&req)

			_, err := svc.Submit(ctx, req)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, repo.creates)
		})
	}
}

func TestService_SetStatus(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo, nil).(*service)

	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	created, err := svc.Submit(ctx, validSubmit())
	require.NoError(t, err)

	published, err := svc.SetStatus(ctx, created.ID, StatusPublished)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	assert.Equal(t, clock, *published.PublishedAt)
	assert.Nil(t, published.ArchivedAt)

	clock = clock.Add(24 * time.Hour)
	archived, err := svc.SetStatus(ctx, created.ID, StatusArchived)
	require.NoError(t, err)
	require.NotNil(t, archived.ArchivedAt)
	assert.Equal(t, clock, *archived.ArchivedAt)
	assert.Equal(t, clock.Add(-24*time.Hour), *archived.PublishedAt)

	// archived back to pending is allowed
	pending, err := svc.SetStatus(ctx, created.ID, StatusPending)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, pending.Status)

	_, err = svc.SetStatus(ctx, created.ID, Status("hidden"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.SetStatus(ctx, uuid.NewString(), StatusPublished)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ListPublished(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo, nil)

	a, err := svc.Submit(ctx, validSubmit())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, validSubmit())
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, a.ID, StatusPublished)
	require.NoError(t, err)

	list, total, err := svc.ListPublished(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, a.ID, list[0].ID)

	_, _, err = svc.List(ctx, Filter{Status: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestService_Import(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo, nil)
	created := time.Date(2024, 5, 2, 3, 4, 5, 0, time.UTC)

	got, err := svc.Import(ctx, &Testimonial{
		Name:        "Budi",
		Email:       " Budi@Example.com",
		Description: "Fast visa, thanks",
		Rating:      5,
		Status:      StatusPublished,
		CreatedAt:   created,
	})
	require.NoError(t, err)
	assert.Equal(t, "budi@example.com", got.Email)
	assert.Equal(t, created, got.CreatedAt)
	require.NotNil(t, got.PublishedAt)
	assert.Equal(t, created, *got.PublishedAt)

	stored, err := repo.GetByID(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, created, stored.CreatedAt)

	_, err = svc.Import(ctx, &Testimonial{Name: "X", Email: "x@example.com", Description: "ok", Rating: 9})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = svc.Import(ctx, &Testimonial{Name: "X", Email: "x@example.com", Description: "ok", Rating: 3, Status: "hidden"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

package announcement

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/visa-cms-backend/internal/cache"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/content"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, *fakeRepository, *cache.MemoryCache) {
	t.Helper()
	repo := newFakeRepository()
	c := cache.NewMemoryCache()
	svc := NewService(repo,
		WithCache(c, time.Minute),
		WithClock(func() time.Time { return testNow }),
	)
	return svc, repo, c
}

func validCreate(title string) CreateRequest {
	return CreateRequest{
		Title:   content.Localized(title, "Judul "+title),
		Content: content.Localized("<p>Body</p>", "<p>Isi</p>"),
		Status:  StatusActive,
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("generates slug from English title", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		a, err := svc.Create(ctx, validCreate("Hello, World!"))
		require.NoError(t, err)
		assert.Equal(t, "hello-world", a.Slug)
		assert.NotEmpty(t, a.ID)
	})

	t.Run("falls back to Indonesian title", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		req := validCreate("")
		req.Title = content.Localized("", "Pengumuman Visa")
		a, err := svc.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "pengumuman-visa", a.Slug)
	})

	t.Run("suffixes colliding slugs", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		var slugs []string
		for range 3 {
			a, err := svc.Create(ctx, validCreate("Promo"))
			require.NoError(t, err)
			slugs = append(slugs, a.Slug)
		}
		assert.Equal(t, []string{"promo", "promo-1", "promo-2"}, slugs)
	})

	t.Run("title without slug characters uses fallback base", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		req := validCreate("!!!")
		req.Title = content.Plain("!!!")
		a, err := svc.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "announcement", a.Slug)
	})

	t.Run("explicit slug is validated", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		req := validCreate("Anything")
		req.Slug = "Not Valid"
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidSlug)

		req.Slug = "custom-slug"
		a, err := svc.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "custom-slug", a.Slug)

		_, err = svc.Create(ctx, req)
		assert.ErrorIs(t, err, ErrSlugTaken)
	})

	t.Run("validation aborts before the store", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.fail = errors.New("store must not be called")

		req := validCreate("x")
		req.Title = content.Localized(" ", "")
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, ErrTitleRequired)

		req = validCreate("x")
		req.Content = content.Plain("<script>alert(1)</script>")
		_, err = svc.Create(ctx, req)
		assert.ErrorIs(t, err, ErrContentRequired)

		req = validCreate("x")
		req.Status = "draft"
		_, err = svc.Create(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidStatus)

		req = validCreate("x")
		req.Status = StatusInactive
		req.ShowOnMain = true
		_, err = svc.Create(ctx, req)
		assert.ErrorIs(t, err, ErrNotActive)
	})

	t.Run("sanitizes content and title", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		req := validCreate("x")
		req.Title = content.Plain("<b>Visa</b> news")
		req.Content = content.Plain(`<p onclick="x()">Hi</p><script>bad()</script>`)
		a, err := svc.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "Visa news", a.Title.In(content.English))
		assert.Equal(t, "<p>Hi</p>", a.Content.In(content.English))
	})

	t.Run("defaults to inactive", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		req := validCreate("x")
		req.Status = ""
		a, err := svc.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, StatusInactive, a.Status)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("regenerates slug when title changes", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		a, err := svc.Create(ctx, validCreate("First Title"))
		require.NoError(t, err)

		title := content.Localized("Second Title", "Judul Kedua")
		updated, err := svc.Update(ctx, a.ID, UpdateRequest{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "second-title", updated.Slug)
	})

	t.Run("keeps slug when only Indonesian title changes", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		a, err := svc.Create(ctx, validCreate("Stable"))
		require.NoError(t, err)

		title := content.Localized("Stable", "Berubah")
		updated, err := svc.Update(ctx, a.ID, UpdateRequest{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "stable", updated.Slug)
	})

	t.Run("own slug does not count as collision", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		a, err := svc.Create(ctx, validCreate("Promo"))
		require.NoError(t, err)

		title := content.Plain("PROMO")
		updated, err := svc.Update(ctx, a.ID, UpdateRequest{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "promo", updated.Slug)
	})

	t.Run("schedule set and cleared", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		a, err := svc.Create(ctx, validCreate("Scheduled"))
		require.NoError(t, err)

		when := testNow.Add(2 * time.Hour)
		updated, err := svc.Update(ctx, a.ID, UpdateRequest{ScheduledDate: &when})
		require.NoError(t, err)
		require.NotNil(t, updated.ScheduledDate)
		assert.True(t, when.Equal(*updated.ScheduledDate))

		updated, err = svc.Update(ctx, a.ID, UpdateRequest{ClearScheduledDate: true})
		require.NoError(t, err)
		assert.Nil(t, updated.ScheduledDate)
	})

	t.Run("deactivating drops main flag", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		req := validCreate("Main")
		req.ShowOnMain = true
		a, err := svc.Create(ctx, req)
		require.NoError(t, err)

		inactive := StatusInactive
		updated, err := svc.Update(ctx, a.ID, UpdateRequest{Status: &inactive})
		require.NoError(t, err)
		assert.False(t, updated.ShowOnMain)
	})

	t.Run("not found", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Update(ctx, "missing", UpdateRequest{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_ResolveSlugOrID(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	a, err := svc.Create(ctx, validCreate("Lookup Me"))
	require.NoError(t, err)

	got, err := svc.ResolveSlugOrID(ctx, "lookup-me")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	got, err = svc.ResolveSlugOrID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "lookup-me", got.Slug)

	_, err = svc.ResolveSlugOrID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("toggle status", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		a, err := svc.Create(ctx, validCreate("Toggle"))
		require.NoError(t, err)

		a, err = svc.ToggleStatus(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusInactive, a.Status)

		a, err = svc.ToggleStatus(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, a.Status)
	})

	t.Run("at most one main announcement", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		first, err := svc.Create(ctx, validCreate("First"))
		require.NoError(t, err)
		second, err := svc.Create(ctx, validCreate("Second"))
		require.NoError(t, err)

		_, err = svc.SetMain(ctx, first.ID)
		require.NoError(t, err)
		_, err = svc.SetMain(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, repo.mainCount())

		got, err := svc.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.False(t, got.ShowOnMain)

		req := validCreate("Third")
		req.ShowOnMain = true
		_, err = svc.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 1, repo.mainCount())
	})

	t.Run("set main requires active", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		req := validCreate("Inactive")
		req.Status = StatusInactive
		a, err := svc.Create(ctx, req)
		require.NoError(t, err)

		_, err = svc.SetMain(ctx, a.ID)
		assert.ErrorIs(t, err, ErrNotActive)
	})

	t.Run("clear main", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		a, err := svc.Create(ctx, validCreate("Main"))
		require.NoError(t, err)
		_, err = svc.SetMain(ctx, a.ID)
		require.NoError(t, err)

		a, err = svc.ClearMain(ctx, a.ID)
		require.NoError(t, err)
		assert.False(t, a.ShowOnMain)
		assert.Equal(t, 0, repo.mainCount())
	})
}

func TestService_GetMain(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.GetMain(ctx)
		assert.ErrorIs(t, err, ErrNoMain)
	})

	t.Run("future schedule is hidden", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		req := validCreate("Later")
		req.ShowOnMain = true
		later := testNow.Add(time.Hour)
		req.ScheduledDate = &later
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)

		_, err = svc.GetMain(ctx)
		assert.ErrorIs(t, err, ErrNoMain)
	})

	t.Run("served from cache and invalidated on change", func(t *testing.T) {
		svc, repo, c := newTestService(t)
		req := validCreate("Featured")
		req.ShowOnMain = true
		a, err := svc.Create(ctx, req)
		require.NoError(t, err)

		got, err := svc.GetMain(ctx)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)

		raw, err := c.Get(ctx, MainCacheKey)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(raw), a.ID))

		_, err = svc.ClearMain(ctx, a.ID)
		require.NoError(t, err)
		_, err = c.Get(ctx, MainCacheKey)
		assert.ErrorIs(t, err, cache.ErrCacheMiss)

		_, err = svc.GetMain(ctx)
		assert.ErrorIs(t, err, ErrNoMain)
		assert.Equal(t, 0, repo.mainCount())
	})

	t.Run("store errors surface", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.fail = errors.New("connection refused")
		_, err := svc.GetMain(ctx)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoMain)
	})
}

func TestService_PublishDue(t *testing.T) {
	ctx := context.Background()
	svc, _, c := newTestService(t)

	req := validCreate("Due")
	due := testNow.Add(-30 * time.Second)
	req.ScheduledDate = &due
	req.ShowOnMain = true
	a, err := svc.Create(ctx, req)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, MainCacheKey, []byte(`{}`), time.Minute))

	published, err := svc.PublishDue(ctx, testNow.Add(-time.Minute), testNow)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, a.ID, published[0].ID)

	_, err = c.Get(ctx, MainCacheKey)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	published, err = svc.PublishDue(ctx, testNow, testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, published)
}

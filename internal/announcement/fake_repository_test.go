package announcement

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// fakeRepository is an in-memory Repository for service tests.
type fakeRepository struct {
	mu      sync.Mutex
	records map[string]*Announcement
	clock   time.Time
	fail    error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		records: make(map[string]*Announcement),
		clock:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *fakeRepository) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func clone(a *Announcement) *Announcement {
	c := *a
	if a.ScheduledDate != nil {
		t := *a.ScheduledDate
		c.ScheduledDate = &t
	}
	return &c
}

func (r *fakeRepository) slugTaken(slug, exceptID string) bool {
	for id, a := range r.records {
		if id != exceptID && a.Slug == slug {
			return true
		}
	}
	return false
}

func (r *fakeRepository) demote(keepID string) {
	for id, a := range r.records {
		if id != keepID {
			a.ShowOnMain = false
		}
	}
}

func (r *fakeRepository) Create(_ context.Context, a *Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	if r.slugTaken(a.Slug, "") {
		return ErrSlugTaken
	}
	if a.ShowOnMain {
		r.demote("")
	}
	a.ID = uuid.NewString()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.tick()
	}
	a.UpdatedAt = a.CreatedAt
	r.records[a.ID] = clone(a)
	return nil
}

func (r *fakeRepository) GetByID(_ context.Context, id string) (*Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	a, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(a), nil
}

func (r *fakeRepository) GetBySlug(_ context.Context, slug string) (*Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.records {
		if a.Slug == slug {
			return clone(a), nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepository) sorted() []*Announcement {
	out := make([]*Announcement, 0, len(r.records))
	for _, a := range r.records {
		out = append(out, clone(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeRepository) List(_ context.Context, f Filter) ([]*Announcement, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, 0, r.fail
	}

	var matched []*Announcement
	for _, a := range r.sorted() {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Keyword != "" && !a.Title.Contains(f.Keyword) && !a.ShortDescription.Contains(f.Keyword) && !a.Content.Contains(f.Keyword) {
			continue
		}
		switch f.Visibility {
		case VisibilityActive:
			if a.ScheduledDate != nil && a.ScheduledDate.After(f.Now) {
				continue
			}
		case VisibilityScheduled:
			if a.ScheduledDate == nil || !a.ScheduledDate.After(f.Now) {
				continue
			}
		}
		matched = append(matched, a)
	}
	return matched, len(matched), nil
}

func (r *fakeRepository) ListMainCandidates(_ context.Context) ([]*Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	var out []*Announcement
	for _, a := range r.sorted() {
		if a.Status == StatusActive && a.ShowOnMain {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepository) ListDueScheduled(_ context.Context, from, to time.Time) ([]*Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Announcement
	for _, a := range r.sorted() {
		if a.Status != StatusActive || a.ScheduledDate == nil {
			continue
		}
		if a.ScheduledDate.After(from) && !a.ScheduledDate.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepository) ListSlugsWithPrefix(_ context.Context, base, excludeID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for id, a := range r.records {
		if id == excludeID {
			continue
		}
		if a.Slug == base || strings.HasPrefix(a.Slug, base+"-") {
			out = append(out, a.Slug)
		}
	}
	return out, nil
}

func (r *fakeRepository) Update(_ context.Context, a *Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[a.ID]; !ok {
		return ErrNotFound
	}
	if r.slugTaken(a.Slug, a.ID) {
		return ErrSlugTaken
	}
	if a.ShowOnMain {
		r.demote(a.ID)
	}
	a.UpdatedAt = r.tick()
	r.records[a.ID] = clone(a)
	return nil
}

func (r *fakeRepository) SetStatus(_ context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

func (r *fakeRepository) SetMain(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	r.demote(id)
	a.ShowOnMain = true
	return nil
}

func (r *fakeRepository) ClearMain(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	a.ShowOnMain = false
	return nil
}

func (r *fakeRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *fakeRepository) mainCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.records {
		if a.ShowOnMain {
			n++
		}
	}
	return n
}

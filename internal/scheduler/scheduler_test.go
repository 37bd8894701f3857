package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/visa-cms-backend/internal/announcement"
)

type window struct{ from, to time.Time }

type fakePublisher struct {
	calls []window
	err   error
	due   []*announcement.Announcement
}

func (p *fakePublisher) PublishDue(_ context.Context, from, to time.Time) ([]*announcement.Announcement, error) {
	p.calls = append(p.calls, window{from, to})
	if p.err != nil {
		return nil, p.err
	}
	return p.due, nil
}

func TestPublishJob_Windows(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	pub := &fakePublisher{due: []*announcement.Announcement{{ID: "a"}}}
	job := NewPublishJob(pub, zap.NewNop())

	n, err := job.RunAt(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pub.err = errors.New("db down")
	_, err = job.RunAt(ctx, base.Add(time.Minute))
	require.Error(t, err)

	pub.err = nil
	_, err = job.RunAt(ctx, base.Add(2*time.Minute))
	require.NoError(t, err)

	require.Len(t, pub.calls, 3)
	assert.Equal(t, window{base.Add(-time.Minute), base}, pub.calls[0])
	// the failed window is retried by the next run
	assert.Equal(t, window{base, base.Add(2 * time.Minute)}, pub.calls[2])
}

type panicTask struct{}

func (panicTask) Run() { panic("boom") }

type countingCounter struct{ calls int }

func (c *countingCounter) RefreshPendingDeletion(context.Context) (int, error) {
	c.calls++
	return 3, nil
}

func TestNewScheduler(t *testing.T) {
	counter := &countingCounter{}
	c := NewScheduler(Deps{
		PublishJob:    panicTask{},
		ImageAuditJob: NewImageAuditJob(counter, nil),
	}, zap.NewNop())

	entries := c.Entries()
	require.Len(t, entries, 2)

	// recovered panics must not escape the wrapped job
	assert.NotPanics(t, func() { entries[0].WrappedJob.Run() })

	entries[1].WrappedJob.Run()
	assert.Equal(t, 1, counter.calls)
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	c := NewScheduler(Deps{PublishJob: panicTask{}, PublishSpec: "not a spec"}, nil)
	assert.Empty(t, c.Entries())
	Stop(c, time.Second)
}

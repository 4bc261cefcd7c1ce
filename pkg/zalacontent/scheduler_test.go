package zalacontent_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zala-app/content-engine/pkg/zalacontent"
	"github.com/zala-app/content-engine/pkg/zalacontent/repo/memory"
	memorystorage "github.com/zala-app/content-engine/pkg/zalacontent/storage/memory"
)

func setupScheduler(t *testing.T) (zalacontent.Service, *zalacontent.Scheduler, *fakeClock) {
	t.Helper()

	repo := memory.New()
	clock := newFakeClock()

	svc, err := zalacontent.New(
		zalacontent.WithRepository(repo),
		zalacontent.WithBlobStore(memorystorage.New()),
		zalacontent.WithClock(clock.Now),
	)
	require.NoError(t, err)

	sched := zalacontent.NewScheduler(svc, repo,
		zalacontent.WithInterval(time.Second),
		zalacontent.WithSchedulerClock(clock.Now),
	)

	return svc, sched, clock
}

func scheduleItem(t *testing.T, svc zalacontent.Service, clock *fakeClock, in time.Duration) *zalacontent.ContentItem {
	t.Helper()
	ctx := context.Background()

	item, err := svc.CreateContent(ctx, newCreateRequest(uuid.New()))
	require.NoError(t, err)

	item, err = svc.ScheduleContent(ctx, item.ID, clock.Now().Add(in))
	require.NoError(t, err)
	return item
}

func TestSchedulerPublishesDuePosts(t *testing.T) {
	svc, sched, clock := setupScheduler(t)
	ctx := context.Background()

	due := scheduleItem(t, svc, clock, time.Minute)
	notYet := scheduleItem(t, svc, clock, time.Hour)

	clock.Advance(2 * time.Minute)

	result := sched.RunPass(ctx)
	assert.Equal(t, 1, result.Due)
	assert.Equal(t, 1, result.Published)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)

	got, err := svc.GetContent(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, zalacontent.ContentStatePublished, got.State)

	got, err = svc.GetContent(ctx, notYet.ID)
	require.NoError(t, err)
	assert.Equal(t, zalacontent.ContentStateScheduled, got.State)
}

func TestSchedulerPassIsIdempotent(t *testing.T) {
	svc, sched, clock := setupScheduler(t)
	ctx := context.Background()

	item := scheduleItem(t, svc, clock, time.Minute)
	clock.Advance(2 * time.Minute)

	first := sched.RunPass(ctx)
	assert.Equal(t, 1, first.Published)

	// The promoted post is live, so the next scan finds nothing due.
	second := sched.RunPass(ctx)
	assert.Equal(t, 0, second.Due)
	assert.Equal(t, 0, second.Published)

	got, err := svc.GetContent(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, got.PublishHistory, 1)
}

func TestSchedulerSkipsConcurrentlyHandledItems(t *testing.T) {
	svc, sched, clock := setupScheduler(t)
	ctx := context.Background()

	item := scheduleItem(t, svc, clock, time.Minute)
	clock.Advance(2 * time.Minute)

	// Published out of band before the pass runs.
	require.NoError(t, svc.PublishContent(ctx, item.ID))

	result := sched.RunPass(ctx)
	assert.Equal(t, 0, result.Due)
	assert.Equal(t, 0, result.Failed)
}

func TestSchedulerEmptyPass(t *testing.T) {
	_, sched, _ := setupScheduler(t)

	result := sched.RunPass(context.Background())
	assert.Equal(t, zalacontent.PassResult{}, result)
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	_, sched, _ := setupScheduler(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}

func TestSchedulerUnscheduledItemNotPublished(t *testing.T) {
	svc, sched, clock := setupScheduler(t)
	ctx := context.Background()

	item := scheduleItem(t, svc, clock, time.Minute)
	_, err := svc.UnscheduleContent(ctx, item.ID)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	result := sched.RunPass(ctx)
	assert.Equal(t, 0, result.Due)

	got, err := svc.GetContent(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, zalacontent.ContentStateDraft, got.State)
}

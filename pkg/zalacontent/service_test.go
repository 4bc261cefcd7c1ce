package zalacontent_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zala-app/content-engine/pkg/zalacontent"
	"github.com/zala-app/content-engine/pkg/zalacontent/repo/memory"
	memorystorage "github.com/zala-app/content-engine/pkg/zalacontent/storage/memory"
)

// fakeClock is a controllable time source shared by the service and the
// scheduler in tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []zalacontent.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []zalacontent.Option{},
			expectError: true,
		},
		{
			name: "with repository should succeed",
			options: []zalacontent.Option{
				zalacontent.WithRepository(memory.New()),
			},
			expectError: false,
		},
		{
			name: "with repository and blob store should succeed",
			options: []zalacontent.Option{
				zalacontent.WithRepository(memory.New()),
				zalacontent.WithBlobStore(memorystorage.New()),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := zalacontent.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func setupTestService(t *testing.T) (zalacontent.Service, *memory.Repository, *fakeClock) {
	t.Helper()

	repo := memory.New()
	clock := newFakeClock()

	svc, err := zalacontent.New(
		zalacontent.WithRepository(repo),
		zalacontent.WithBlobStore(memorystorage.New()),
		zalacontent.WithClock(clock.Now),
	)
	require.NoError(t, err)
	require.NotNil(t, svc)

	return svc, repo, clock
}

func newCreateRequest(creatorID uuid.UUID) zalacontent.CreateContentRequest {
	return zalacontent.CreateContentRequest{
		CreatorID:     creatorID,
		CreatorName:   "Test Creator",
		Title:         "Morning Flow",
		Focus:         "mobility",
		Description:   "A gentle morning mobility session",
		VideoRef:      "videos/" + creatorID.String() + "/abc-morning.mp4",
		ThumbnailRef:  "thumbnails/" + creatorID.String() + "/abc-morning.jpg",
		Tags:          []string{"mobility", "morning"},
		Accessibility: []string{zalacontent.AccessSubscribers},
	}
}

func TestCreateContent(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	creatorID := uuid.New()

	t.Run("valid draft", func(t *testing.T) {
		item, err := svc.CreateContent(ctx, newCreateRequest(creatorID))
		require.NoError(t, err)
		assert.Equal(t, zalacontent.ContentStateDraft, item.State)
		assert.Nil(t, item.ScheduledFor)
		assert.Empty(t, item.PostIDs)
		assert.NotEqual(t, uuid.Nil, item.ID)
	})

	t.Run("missing title", func(t *testing.T) {
		req := newCreateRequest(creatorID)
		req.Title = ""
		_, err := svc.CreateContent(ctx, req)
		assert.ErrorIs(t, err, zalacontent.ErrValidation)
	})

	t.Run("missing creator", func(t *testing.T) {
		req := newCreateRequest(creatorID)
		req.CreatorID = uuid.Nil
		_, err := svc.CreateContent(ctx, req)
		assert.ErrorIs(t, err, zalacontent.ErrValidation)
	})

	t.Run("missing media refs", func(t *testing.T) {
		req := newCreateRequest(creatorID)
		req.VideoRef = ""
		_, err := svc.CreateContent(ctx, req)
		assert.ErrorIs(t, err, zalacontent.ErrValidation)

		req = newCreateRequest(creatorID)
		req.ThumbnailRef = ""
		_, err = svc.CreateContent(ctx, req)
		assert.ErrorIs(t, err, zalacontent.ErrValidation)
	})
}

func TestCreateContentScheduled(t *testing.T) {
	svc, _, clock := setupTestService(t)
	ctx := context.Background()
	creatorID := uuid.New()

	t.Run("future schedule creates snapshot", func(t *testing.T) {
		req := newCreateRequest(creatorID)
		at := clock.Now().Add(time.Hour)
		req.ScheduledFor = &at

		item, err := svc.CreateContent(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, zalacontent.ContentStateScheduled, item.State)
		require.NotNil(t, item.ScheduledFor)
		assert.True(t, item.ScheduledFor.Equal(at))
		require.Len(t, item.PostIDs, 1)

		post, err := svc.GetPost(ctx, item.PostIDs[0])
		require.NoError(t, err)
		assert.Equal(t, zalacontent.PostStateScheduled, post.State)
		assert.Equal(t, item.ID, post.ContentID)
		assert.Equal(t, item.Title, post.Title)
		assert.Nil(t, post.PostedAt)
	})

	t.Run("past schedule rejected", func(t *testing.T) {
		req := newCreateRequest(creatorID)
		at := clock.Now().Add(-time.Minute)
		req.ScheduledFor = &at

		_, err := svc.CreateContent(ctx, req)
		assert.ErrorIs(t, err, zalacontent.ErrInvalidSchedule)
	})

	t.Run("schedule at exactly now rejected", func(t *testing.T) {
		req := newCreateRequest(creatorID)
		at := clock.Now()
		req.ScheduledFor = &at

		_, err := svc.CreateContent(ctx, req)
		assert.ErrorIs(t, err, zalacontent.ErrInvalidSchedule)
	})
}

func TestScheduleContent(t *testing.T) {
	svc, _, clock := setupTestService(t)
	ctx := context.Background()
	creatorID := uuid.New()

	t.Run("draft to scheduled", func(t *testing.T) {
		item, err := svc.CreateContent(ctx, newCreateRequest(creatorID))
		require.NoError(t, err)

		at := clock.Now().Add(2 * time.Hour)
		item, err = svc.ScheduleContent(ctx, item.ID, at)
		require.NoError(t, err)
		assert.Equal(t, zalacontent.ContentStateScheduled, item.State)
		require.Len(t, item.PostIDs, 1)
	})

	t.Run("past time fails", func(t *testing.T) {
		item, err := svc.CreateContent(ctx, newCreateRequest(creatorID))
		require.NoError(t, err)

		_, err = svc.ScheduleContent(ctx, item.ID, clock.Now().Add(-time.Hour))
		assert.ErrorIs(t, err, zalacontent.ErrInvalidSchedule)

		// State unchanged after the failed transition
		got, err := svc.GetContent(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, zalacontent.ContentStateDraft, got.State)
		assert.Empty(t, got.PostIDs)
	})

	t.Run("reschedule moves pending post instead of adding one", func(t *testing.T) {
		item, err := svc.CreateContent(ctx, newCreateRequest(creatorID))
		require.NoError(t, err)

		first := clock.Now().Add(time.Hour)
		item, err = svc.ScheduleContent(ctx, item.ID, first)
		require.NoError(t, err)
		require.Len(t, item.PostIDs, 1)
		postID := item.PostIDs[0]

		second := clock.Now().Add(3 * time.Hour)
		item, err = svc.ScheduleContent(ctx, item.ID, second)
		require.NoError(t, err)
		require.Len(t, item.PostIDs, 1)
		assert.Equal(t, postID, item.PostIDs[0])

		post, err := svc.GetPost(ctx, postID)
		require.NoError(t, err)
		assert.True(t, post.ScheduledFor.Equal(second))
	})

	t.Run("unknown content", func(t *testing.T) {
		_, err := svc.ScheduleContent(ctx, uuid.New(), clock.Now().Add(time.Hour))
		assert.ErrorIs(t, err, zalacontent.ErrContentNotFound)
	})
}

func TestUnscheduleContent(t *testing.T) {
	svc, _, clock := setupTestService(t)
	ctx := context.Background()
	creatorID := uuid.New()

	t.Run("scheduled reverts to draft", func(t *testing.T) {
		item, err := svc.CreateContent(ctx, newCreateRequest(creatorID))
		require.NoError(t, err)

		item, err = svc.ScheduleContent(ctx, item.ID, clock.Now().Add(time.Hour))
		require.NoError(t, err)
		postID := item.PostIDs[0]

		item, err = svc.UnscheduleContent(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, zalacontent.ContentStateDraft, item.State)
		assert.Nil(t, item.ScheduledFor)
		assert.Empty(t, item.PostIDs)

		_, err = svc.GetPost(ctx, postID)
		assert.ErrorIs(t, err, zalacontent.ErrPostNotFound)
	})

	t.Run("draft cannot be unscheduled", func(t *testing.T) {
		item, err := svc.CreateContent(ctx, newCreateRequest(creatorID))
		require.NoError(t, err)

		_, err = svc.UnscheduleContent(ctx, item.ID)
		assert.ErrorIs(t, err, zalacontent.ErrNotScheduled)
	})

	t.Run("published cannot be unscheduled", func(t *testing.T) {
		item := publishItem(t, svc, clock, newCreateRequest(creatorID))

		_, err := svc.UnscheduleContent(ctx, item.ID)
		assert.ErrorIs(t, err, zalacontent.ErrNotScheduled)
	})
}

// publishItem walks an item through schedule and publish using the fake
// clock and returns its refreshed state.
func publishItem(t *testing.T, svc zalacontent.Service, clock *fakeClock, req zalacontent.CreateContentRequest) *zalacontent.ContentItem {
	t.Helper()
	ctx := context.Background()

	item, err := svc.CreateContent(ctx, req)
	require.NoError(t, err)

	_, err = svc.ScheduleContent(ctx, item.ID, clock.Now().Add(time.Minute))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	require.NoError(t, svc.PublishContent(ctx, item.ID))

	item, err = svc.GetContent(ctx, item.ID)
	require.NoError(t, err)
	return item
}

func TestPublishContent(t *testing.T) {
	svc, _, clock := setupTestService(t)
	ctx := context.Background()
	creatorID := uuid.New()

	t.Run("promotes post and records history", func(t *testing.T) {
		item := publishItem(t, svc, clock, newCreateRequest(creatorID))

		assert.Equal(t, zalacontent.ContentStatePublished, item.State)
		assert.Nil(t, item.ScheduledFor)
		require.Len(t, item.PublishHistory, 1)
		require.Len(t, item.PostIDs, 1)

		post, err := svc.GetPost(ctx, item.PostIDs[0])
		require.NoError(t, err)
		assert.Equal(t, zalacontent.PostStateLive, post.State)
		require.NotNil(t, post.PostedAt)
	})

	t.Run("second publish reports not scheduled", func(t *testing.T) {
		item := publishItem(t, svc, clock, newCreateRequest(creatorID))

		err := svc.PublishContent(ctx, item.ID)
		assert.ErrorIs(t, err, zalacontent.ErrNotScheduled)

		// Still exactly one history entry and one live post
		got, err := svc.GetContent(ctx, item.ID)
		require.NoError(t, err)
		assert.Len(t, got.PublishHistory, 1)
	})

	t.Run("public item lands in discovery", func(t *testing.T) {
		svc2, _, clock2 := setupTestService(t)

		req := newCreateRequest(creatorID)
		req.Accessibility = []string{zalacontent.AccessPublic}
		item := publishItem(t, svc2, clock2, req)

		entries, err := svc2.ListPublicFeed(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, item.ID, entries[0].ContentID)
		assert.Equal(t, item.PostIDs[0], entries[0].PostID)
		assert.Equal(t, item.Title, entries[0].Title)
	})

	t.Run("subscriber-only item stays out of discovery", func(t *testing.T) {
		svc2, _, clock2 := setupTestService(t)

		publishItem(t, svc2, clock2, newCreateRequest(creatorID))

		entries, err := svc2.ListPublicFeed(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("republish starts a fresh cycle", func(t *testing.T) {
		svc2, _, clock2 := setupTestService(t)

		item := publishItem(t, svc2, clock2, newCreateRequest(creatorID))

		_, err := svc2.ScheduleContent(ctx, item.ID, clock2.Now().Add(time.Minute))
		require.NoError(t, err)
		clock2.Advance(2 * time.Minute)
		require.NoError(t, svc2.PublishContent(ctx, item.ID))

		got, err := svc2.GetContent(ctx, item.ID)
		require.NoError(t, err)
		assert.Len(t, got.PostIDs, 2)
		assert.Len(t, got.PublishHistory, 2)
	})
}

func TestEditContent(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	creatorID := uuid.New()

	t.Run("partial update", func(t *testing.T) {
		item, err := svc.CreateContent(ctx, newCreateRequest(creatorID))
		require.NoError(t, err)

		title := "Evening Flow"
		item, err = svc.EditContent(ctx, zalacontent.EditContentRequest{
			ID:    item.ID,
			Title: &title,
		})
		require.NoError(t, err)
		assert.Equal(t, "Evening Flow", item.Title)
		assert.Equal(t, "mobility", item.Focus)
	})

	t.Run("library flag drives projection", func(t *testing.T) {
		item, err := svc.CreateContent(ctx, newCreateRequest(creatorID))
		require.NoError(t, err)

		inLibrary := true
		_, err = svc.EditContent(ctx, zalacontent.EditContentRequest{ID: item.ID, InLibrary: &inLibrary})
		require.NoError(t, err)

		entries, err := svc.ListLibraryByCreator(ctx, creatorID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, item.ID, entries[0].ContentID)

		inLibrary = false
		_, err = svc.EditContent(ctx, zalacontent.EditContentRequest{ID: item.ID, InLibrary: &inLibrary})
		require.NoError(t, err)

		entries, err = svc.ListLibraryByCreator(ctx, creatorID)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("edit refreshes discovery but not post snapshots", func(t *testing.T) {
		svc2, _, clock2 := setupTestService(t)

		req := newCreateRequest(creatorID)
		req.Accessibility = []string{zalacontent.AccessPublic}
		item := publishItem(t, svc2, clock2, req)
		originalTitle := item.Title

		title := "Renamed Session"
		_, err := svc2.EditContent(ctx, zalacontent.EditContentRequest{ID: item.ID, Title: &title})
		require.NoError(t, err)

		entries, err := svc2.ListPublicFeed(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Renamed Session", entries[0].Title)

		post, err := svc2.GetPost(ctx, item.PostIDs[0])
		require.NoError(t, err)
		assert.Equal(t, originalTitle, post.Title)
	})

	t.Run("turning discovery on after publish creates entries", func(t *testing.T) {
		svc2, _, clock2 := setupTestService(t)

		item := publishItem(t, svc2, clock2, newCreateRequest(creatorID))

		entries, err := svc2.ListPublicFeed(ctx)
		require.NoError(t, err)
		require.Empty(t, entries)

		on := true
		_, err = svc2.EditContent(ctx, zalacontent.EditContentRequest{ID: item.ID, PublicDiscovery: &on})
		require.NoError(t, err)

		entries, err = svc2.ListPublicFeed(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, item.PostIDs[0], entries[0].PostID)
		assert.Equal(t, item.Title, entries[0].Title)

		off := false
		_, err = svc2.EditContent(ctx, zalacontent.EditContentRequest{ID: item.ID, PublicDiscovery: &off})
		require.NoError(t, err)

		entries, err = svc2.ListPublicFeed(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("discovery flag without live posts projects nothing", func(t *testing.T) {
		svc2, _, _ := setupTestService(t)

		item, err := svc2.CreateContent(ctx, newCreateRequest(creatorID))
		require.NoError(t, err)

		on := true
		_, err = svc2.EditContent(ctx, zalacontent.EditContentRequest{ID: item.ID, PublicDiscovery: &on})
		require.NoError(t, err)

		entries, err := svc2.ListPublicFeed(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("dropping public access prunes discovery", func(t *testing.T) {
		svc2, _, clock2 := setupTestService(t)

		req := newCreateRequest(creatorID)
		req.Accessibility = []string{zalacontent.AccessPublic}
		item := publishItem(t, svc2, clock2, req)

		_, err := svc2.EditContent(ctx, zalacontent.EditContentRequest{
			ID:            item.ID,
			Accessibility: []string{zalacontent.AccessSubscribers},
		})
		require.NoError(t, err)

		entries, err := svc2.ListPublicFeed(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("unknown content", func(t *testing.T) {
		title := "x"
		_, err := svc.EditContent(ctx, zalacontent.EditContentRequest{ID: uuid.New(), Title: &title})
		assert.ErrorIs(t, err, zalacontent.ErrContentNotFound)
	})
}

func TestDeleteContent(t *testing.T) {
	svc, _, clock := setupTestService(t)
	ctx := context.Background()
	creatorID := uuid.New()

	t.Run("removes item and all derived records", func(t *testing.T) {
		req := newCreateRequest(creatorID)
		req.Accessibility = []string{zalacontent.AccessPublic}
		req.InLibrary = true
		item := publishItem(t, svc, clock, req)
		postID := item.PostIDs[0]

		_, err := svc.LikePost(ctx, "user-1", postID)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteContent(ctx, item.ID))

		_, err = svc.GetContent(ctx, item.ID)
		assert.ErrorIs(t, err, zalacontent.ErrContentNotFound)

		_, err = svc.GetPost(ctx, postID)
		assert.ErrorIs(t, err, zalacontent.ErrPostNotFound)

		entries, err := svc.ListPublicFeed(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)

		library, err := svc.ListLibraryByCreator(ctx, creatorID)
		require.NoError(t, err)
		assert.Empty(t, library)
	})

	t.Run("unknown content", func(t *testing.T) {
		err := svc.DeleteContent(ctx, uuid.New())
		assert.ErrorIs(t, err, zalacontent.ErrContentNotFound)
	})
}

func TestSearchContentByCreator(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	creatorID := uuid.New()

	req := newCreateRequest(creatorID)
	req.Title = "Strength Basics"
	req.Focus = "strength"
	req.Description = "Progressive overload fundamentals"
	_, err := svc.CreateContent(ctx, req)
	require.NoError(t, err)

	req = newCreateRequest(creatorID)
	req.Title = "Morning Mobility"
	req.Description = "full body wake-up"
	_, err = svc.CreateContent(ctx, req)
	require.NoError(t, err)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"title match", "strength", 1},
		{"case insensitive", "MORNING", 1},
		{"description match", "wake-up", 1},
		{"no match", "pilates", 0},
		{"empty query matches all", "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := svc.SearchContentByCreator(ctx, creatorID, tt.query)
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestInteractions(t *testing.T) {
	svc, _, clock := setupTestService(t)
	ctx := context.Background()
	creatorID := uuid.New()

	item := publishItem(t, svc, clock, newCreateRequest(creatorID))
	postID := item.PostIDs[0]

	t.Run("like is idempotent", func(t *testing.T) {
		res, err := svc.LikePost(ctx, "alice", postID)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, int64(1), res.Likes)

		res, err = svc.LikePost(ctx, "alice", postID)
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.Equal(t, int64(1), res.Likes)
	})

	t.Run("like and dislike are mutually exclusive", func(t *testing.T) {
		res, err := svc.DislikePost(ctx, "alice", postID)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, int64(0), res.Likes)
		assert.Equal(t, int64(1), res.Dislikes)

		res, err = svc.LikePost(ctx, "alice", postID)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, int64(1), res.Likes)
		assert.Equal(t, int64(0), res.Dislikes)
	})

	t.Run("views count each user once", func(t *testing.T) {
		res, err := svc.ViewPost(ctx, "alice", postID)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, int64(1), res.Views)

		res, err = svc.ViewPost(ctx, "alice", postID)
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.Equal(t, int64(1), res.Views)

		res, err = svc.ViewPost(ctx, "bob", postID)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, int64(2), res.Views)
	})

	t.Run("independent users", func(t *testing.T) {
		res, err := svc.LikePost(ctx, "bob", postID)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, int64(2), res.Likes)
	})

	t.Run("empty user id rejected", func(t *testing.T) {
		_, err := svc.LikePost(ctx, "", postID)
		assert.ErrorIs(t, err, zalacontent.ErrValidation)
	})

	t.Run("unknown post", func(t *testing.T) {
		_, err := svc.LikePost(ctx, "alice", uuid.New())
		assert.ErrorIs(t, err, zalacontent.ErrPostNotFound)
	})
}

func TestForYouFeed(t *testing.T) {
	svc, _, clock := setupTestService(t)
	ctx := context.Background()

	subscribed := uuid.New()
	other := uuid.New()

	// Subscribed creator: one public item (also in discovery) and one
	// subscriber-only item.
	pubReq := newCreateRequest(subscribed)
	pubReq.Title = "Public From Subscribed"
	pubReq.Accessibility = []string{zalacontent.AccessPublic}
	publishItem(t, svc, clock, pubReq)

	clock.Advance(time.Minute)

	subReq := newCreateRequest(subscribed)
	subReq.Title = "Members Only"
	publishItem(t, svc, clock, subReq)

	clock.Advance(time.Minute)

	// Other creator's subscriber-only item must not appear.
	otherReq := newCreateRequest(other)
	otherReq.Title = "Not Subscribed"
	publishItem(t, svc, clock, otherReq)

	feed, err := svc.ListForYouFeed(ctx, []uuid.UUID{subscribed})
	require.NoError(t, err)
	require.Len(t, feed, 2)

	// Deduplicated: the public item appears once even though it is both a
	// subscribed post and a discovery entry.
	seen := map[uuid.UUID]int{}
	for _, item := range feed {
		seen[item.PostID]++
	}
	for postID, count := range seen {
		assert.Equal(t, 1, count, "post %s duplicated in feed", postID)
	}

	// Newest first
	assert.Equal(t, "Members Only", feed[0].Title)
	assert.Equal(t, "Public From Subscribed", feed[1].Title)
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zala-app/content-engine/pkg/zalacontent"
)

func testContentItem(creatorID uuid.UUID) *zalacontent.ContentItem {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &zalacontent.ContentItem{
		ID:            uuid.New(),
		CreatorID:     creatorID,
		CreatorName:   "Creator",
		Title:         "Session",
		Focus:         "strength",
		Description:   "Full body strength session",
		VideoRef:      "videos/a.mp4",
		ThumbnailRef:  "thumbnails/a.jpg",
		Tags:          []string{"strength"},
		Accessibility: []string{zalacontent.AccessSubscribers},
		State:         zalacontent.ContentStateDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func testPostFor(item *zalacontent.ContentItem, at time.Time) *zalacontent.PublishedPost {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &zalacontent.PublishedPost{
		ID:           uuid.New(),
		ContentID:    item.ID,
		CreatorID:    item.CreatorID,
		CreatorName:  item.CreatorName,
		Title:        item.Title,
		VideoRef:     item.VideoRef,
		ThumbnailRef: item.ThumbnailRef,
		State:        zalacontent.PostStateScheduled,
		ScheduledFor: at,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestRepository_ContentRoundTrip(t *testing.T) {
	RunTest(t, func(t *testing.T, db *TestDB) {
		repo := NewWithPool(db.Pool)
		ctx := context.Background()

		item := testContentItem(uuid.New())
		require.NoError(t, repo.CreateContent(ctx, item))

		got, err := repo.GetContent(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item.Title, got.Title)
		assert.Equal(t, item.Tags, got.Tags)
		assert.Equal(t, item.Accessibility, got.Accessibility)
		assert.Empty(t, got.PostIDs)

		got.Title = "Renamed"
		got.UpdatedAt = time.Now().UTC()
		require.NoError(t, repo.UpdateContent(ctx, got))

		got, err = repo.GetContent(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)

		require.NoError(t, repo.DeleteContent(ctx, item.ID))

		_, err = repo.GetContent(ctx, item.ID)
		assert.ErrorIs(t, err, zalacontent.ErrContentNotFound)
	})
}

func TestRepository_PostIDsDerivedFromPosts(t *testing.T) {
	RunTest(t, func(t *testing.T, db *TestDB) {
		repo := NewWithPool(db.Pool)
		ctx := context.Background()

		item := testContentItem(uuid.New())
		require.NoError(t, repo.CreateContent(ctx, item))

		post := testPostFor(item, time.Now().UTC().Add(time.Hour))
		require.NoError(t, repo.CreatePost(ctx, post))

		got, err := repo.GetContent(ctx, item.ID)
		require.NoError(t, err)
		require.Len(t, got.PostIDs, 1)
		assert.Equal(t, post.ID, got.PostIDs[0])
	})
}

func TestRepository_SearchContentByCreator(t *testing.T) {
	RunTest(t, func(t *testing.T, db *TestDB) {
		repo := NewWithPool(db.Pool)
		ctx := context.Background()
		creatorID := uuid.New()

		a := testContentItem(creatorID)
		a.Title = "Deep Stretch"
		require.NoError(t, repo.CreateContent(ctx, a))

		b := testContentItem(creatorID)
		b.Title = "HIIT Blast"
		require.NoError(t, repo.CreateContent(ctx, b))

		items, err := repo.SearchContentByCreator(ctx, creatorID, "DEEP")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, a.ID, items[0].ID)

		items, err = repo.SearchContentByCreator(ctx, creatorID, "")
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})
}

func TestRepository_DuePosts(t *testing.T) {
	RunTest(t, func(t *testing.T, db *TestDB) {
		repo := NewWithPool(db.Pool)
		ctx := context.Background()

		item := testContentItem(uuid.New())
		require.NoError(t, repo.CreateContent(ctx, item))

		at := time.Now().UTC().Truncate(time.Microsecond)
		post := testPostFor(item, at)
		require.NoError(t, repo.CreatePost(ctx, post))

		due, err := repo.ListDuePosts(ctx, at.Add(-time.Minute))
		require.NoError(t, err)
		assert.Empty(t, due)

		due, err = repo.ListDuePosts(ctx, at.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, post.ID, due[0].ID)

		// Promote to live and confirm it drops out of the scan
		now := time.Now().UTC()
		post.State = zalacontent.PostStateLive
		post.PostedAt = &now
		require.NoError(t, repo.UpdatePost(ctx, post))

		due, err = repo.ListDuePosts(ctx, at.Add(time.Minute))
		require.NoError(t, err)
		assert.Empty(t, due)
	})
}

func TestRepository_LibraryUpsert(t *testing.T) {
	RunTest(t, func(t *testing.T, db *TestDB) {
		repo := NewWithPool(db.Pool)
		ctx := context.Background()
		creatorID := uuid.New()

		item := testContentItem(creatorID)
		require.NoError(t, repo.CreateContent(ctx, item))

		entry, err := repo.GetLibraryEntryByContent(ctx, item.ID)
		require.NoError(t, err)
		assert.Nil(t, entry)

		now := time.Now().UTC()
		first := &zalacontent.LibraryEntry{
			ID:        uuid.New(),
			ContentID: item.ID,
			CreatorID: creatorID,
			Title:     "Session",
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, repo.UpsertLibraryEntry(ctx, first))

		second := *first
		second.Title = "Renamed"
		require.NoError(t, repo.UpsertLibraryEntry(ctx, &second))

		entries, err := repo.ListLibraryByCreator(ctx, creatorID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Renamed", entries[0].Title)
	})
}

func TestRepository_PublicEntries(t *testing.T) {
	RunTest(t, func(t *testing.T, db *TestDB) {
		repo := NewWithPool(db.Pool)
		ctx := context.Background()
		creatorID := uuid.New()

		item := testContentItem(creatorID)
		require.NoError(t, repo.CreateContent(ctx, item))

		post := testPostFor(item, time.Now().UTC())
		require.NoError(t, repo.CreatePost(ctx, post))

		now := time.Now().UTC().Truncate(time.Microsecond)
		entry := &zalacontent.PublicEntry{
			ID:        uuid.New(),
			ContentID: item.ID,
			PostID:    post.ID,
			CreatorID: creatorID,
			Title:     "Session",
			PostedAt:  now,
			CreatedAt: now,
		}
		require.NoError(t, repo.CreatePublicEntry(ctx, entry))

		entries, err := repo.ListPublicEntriesByCreators(ctx, []uuid.UUID{creatorID, uuid.New()})
		require.NoError(t, err)
		require.Len(t, entries, 1)

		replacement := *entry
		replacement.Title = "Renamed"
		require.NoError(t, repo.ReplacePublicEntriesByContent(ctx, item.ID, []*zalacontent.PublicEntry{&replacement}))

		entries, err = repo.ListPublicEntriesByContent(ctx, item.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Renamed", entries[0].Title)

		require.NoError(t, repo.DeletePublicEntriesByContent(ctx, item.ID))

		entries, err = repo.ListPublicEntries(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestRepository_Interactions(t *testing.T) {
	RunTest(t, func(t *testing.T, db *TestDB) {
		repo := NewWithPool(db.Pool)
		ctx := context.Background()

		item := testContentItem(uuid.New())
		require.NoError(t, repo.CreateContent(ctx, item))
		post := testPostFor(item, time.Now().UTC())
		require.NoError(t, repo.CreatePost(ctx, post))

		rec, err := repo.GetInteraction(ctx, "alice", post.ID)
		require.NoError(t, err)
		assert.Nil(t, rec)

		now := time.Now().UTC()
		require.NoError(t, repo.SaveInteraction(ctx, &zalacontent.InteractionRecord{
			UserID:    "alice",
			PostID:    post.ID,
			Liked:     true,
			CreatedAt: now,
			UpdatedAt: now,
		}))

		rec, err = repo.GetInteraction(ctx, "alice", post.ID)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.True(t, rec.Liked)

		rec.Liked = false
		rec.Viewed = true
		require.NoError(t, repo.SaveInteraction(ctx, rec))

		rec, err = repo.GetInteraction(ctx, "alice", post.ID)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.False(t, rec.Liked)
		assert.True(t, rec.Viewed)

		require.NoError(t, repo.DeleteInteractionsByPost(ctx, post.ID))

		rec, err = repo.GetInteraction(ctx, "alice", post.ID)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestRepository_GetPostForUpdateSerializesWrites(t *testing.T) {
	RunTest(t, func(t *testing.T, db *TestDB) {
		repo := NewWithPool(db.Pool)
		ctx := context.Background()

		item := testContentItem(uuid.New())
		require.NoError(t, repo.CreateContent(ctx, item))
		post := testPostFor(item, time.Now().UTC().Truncate(time.Microsecond))
		require.NoError(t, repo.CreatePost(ctx, post))

		tx1, err := db.Pool.Begin(ctx)
		require.NoError(t, err)
		txRepo := &Repository{db: tx1}

		locked, err := txRepo.GetPostForUpdate(ctx, post.ID)
		require.NoError(t, err)
		require.Equal(t, zalacontent.PostStateScheduled, locked.State)

		// A second transaction's locked read must wait for the first to
		// commit and then observe the row it wrote.
		observed := make(chan zalacontent.PostState, 1)
		readErr := make(chan error, 1)
		go func() {
			readErr <- repo.InTx(ctx, func(tx zalacontent.Repository) error {
				p, err := tx.GetPostForUpdate(ctx, post.ID)
				if err != nil {
					return err
				}
				observed <- p.State
				return nil
			})
		}()

		now := time.Now().UTC().Truncate(time.Microsecond)
		locked.State = zalacontent.PostStateLive
		locked.PostedAt = &now
		locked.UpdatedAt = now
		require.NoError(t, txRepo.UpdatePost(ctx, locked))
		require.NoError(t, tx1.Commit(ctx))

		select {
		case err := <-readErr:
			require.NoError(t, err)
			assert.Equal(t, zalacontent.PostStateLive, <-observed)
		case <-time.After(5 * time.Second):
			t.Fatal("locked read did not complete")
		}
	})
}

func TestRepository_ConcurrentPublishPromotesOnce(t *testing.T) {
	RunTest(t, func(t *testing.T, db *TestDB) {
		repo := NewWithPool(db.Pool)
		svc, err := zalacontent.New(zalacontent.WithRepository(repo))
		require.NoError(t, err)
		ctx := context.Background()

		at := time.Now().UTC().Truncate(time.Microsecond)
		item := testContentItem(uuid.New())
		item.Accessibility = []string{zalacontent.AccessPublic}
		item.State = zalacontent.ContentStateScheduled
		item.ScheduledFor = &at
		require.NoError(t, repo.CreateContent(ctx, item))
		post := testPostFor(item, at)
		require.NoError(t, repo.CreatePost(ctx, post))

		const attempts = 4
		errs := make(chan error, attempts)
		for i := 0; i < attempts; i++ {
			go func() { errs <- svc.PublishContent(ctx, item.ID) }()
		}

		var published, alreadyHandled int
		for i := 0; i < attempts; i++ {
			switch err := <-errs; {
			case err == nil:
				published++
			case errors.Is(err, zalacontent.ErrAlreadyPublished) || errors.Is(err, zalacontent.ErrNotScheduled):
				alreadyHandled++
			default:
				t.Errorf("unexpected publish error: %v", err)
			}
		}
		assert.Equal(t, 1, published)
		assert.Equal(t, attempts-1, alreadyHandled)

		got, err := repo.GetContent(ctx, item.ID)
		require.NoError(t, err)
		assert.Len(t, got.PublishHistory, 1)

		entries, err := repo.ListPublicEntries(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestRepository_ConcurrentLikesKeepEveryCount(t *testing.T) {
	RunTest(t, func(t *testing.T, db *TestDB) {
		repo := NewWithPool(db.Pool)
		svc, err := zalacontent.New(zalacontent.WithRepository(repo))
		require.NoError(t, err)
		ctx := context.Background()

		item := testContentItem(uuid.New())
		require.NoError(t, repo.CreateContent(ctx, item))

		now := time.Now().UTC().Truncate(time.Microsecond)
		post := testPostFor(item, now)
		post.State = zalacontent.PostStateLive
		post.PostedAt = &now
		require.NoError(t, repo.CreatePost(ctx, post))

		const users = 8
		var wg sync.WaitGroup
		errs := make(chan error, users)
		for i := 0; i < users; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := svc.LikePost(ctx, fmt.Sprintf("user-%d", i), post.ID)
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := repo.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(users), got.Likes)
	})
}

func TestRepository_InTxRollback(t *testing.T) {
	RunTest(t, func(t *testing.T, db *TestDB) {
		repo := NewWithPool(db.Pool)
		ctx := context.Background()

		item := testContentItem(uuid.New())
		boom := errors.New("boom")

		err := repo.InTx(ctx, func(tx zalacontent.Repository) error {
			if err := tx.CreateContent(ctx, item); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = repo.GetContent(ctx, item.ID)
		assert.ErrorIs(t, err, zalacontent.ErrContentNotFound)
	})
}

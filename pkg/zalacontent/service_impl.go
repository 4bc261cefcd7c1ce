package zalacontent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
	replicator *replicator
	now        func() time.Time
	logger     *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the object storage backend used to release media
// references on edit and delete.
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithClock overrides the service's time source. Used by tests to drive
// schedule eligibility without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// WithLogger sets the structured logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	s.replicator = newReplicator(s.now)

	return s, nil
}

// domainErrs are surfaced to callers as-is; anything else arising inside a
// transaction is reported as a TransactionError.
var domainErrs = []error{
	ErrContentNotFound,
	ErrPostNotFound,
	ErrValidation,
	ErrInvalidSchedule,
	ErrNotScheduled,
	ErrAlreadyPublished,
	ErrInvalidContentState,
	ErrInvalidPostState,
}

func wrapTx(op string, err error) error {
	if err == nil {
		return nil
	}
	if errorsIsAny(err, domainErrs...) {
		return err
	}
	return &TransactionError{Op: op, Err: err}
}

// Lifecycle operations

func (s *service) CreateContent(ctx context.Context, req CreateContentRequest) (*ContentItem, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := s.now()
	item := &ContentItem{
		ID:                uuid.New(),
		CreatorID:         req.CreatorID,
		CreatorName:       req.CreatorName,
		CreatorProfileURL: req.CreatorProfileURL,
		Title:             req.Title,
		Focus:             req.Focus,
		Description:       req.Description,
		VideoRef:          req.VideoRef,
		ThumbnailRef:      req.ThumbnailRef,
		Tags:              req.Tags,
		Accessibility:     req.Accessibility,
		OrgID:             req.OrgID,
		InLibrary:         req.InLibrary,
		PublicDiscovery:   req.PublicDiscovery,
		State:             ContentStateDraft,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if req.ScheduledFor != nil {
		if _, err := canSchedule(ContentStateDraft, *req.ScheduledFor, now); err != nil {
			return nil, err
		}
		at := req.ScheduledFor.UTC()
		item.State = ContentStateScheduled
		item.ScheduledFor = &at
	}

	err := s.repository.InTx(ctx, func(repo Repository) error {
		if err := repo.CreateContent(ctx, item); err != nil {
			return err
		}
		if item.State == ContentStateScheduled {
			post, err := s.replicator.snapshotPost(ctx, repo, item, *item.ScheduledFor)
			if err != nil {
				return err
			}
			item.PostIDs = append(item.PostIDs, post.ID)
			if err := repo.UpdateContent(ctx, item); err != nil {
				return err
			}
		}
		return s.replicator.syncLibrary(ctx, repo, item)
	})
	if err != nil {
		return nil, wrapTx("create", err)
	}

	return item, nil
}

func (s *service) EditContent(ctx context.Context, req EditContentRequest) (*ContentItem, error) {
	var item *ContentItem
	var releasedRefs []string

	err := s.repository.InTx(ctx, func(repo Repository) error {
		var err error
		item, err = repo.GetContent(ctx, req.ID)
		if err != nil {
			return err
		}

		if req.Title != nil {
			item.Title = *req.Title
		}
		if req.Focus != nil {
			item.Focus = *req.Focus
		}
		if req.Description != nil {
			item.Description = *req.Description
		}
		if req.Tags != nil {
			item.Tags = req.Tags
		}
		if req.Accessibility != nil {
			item.Accessibility = req.Accessibility
		}
		if req.InLibrary != nil {
			item.InLibrary = *req.InLibrary
		}
		if req.PublicDiscovery != nil {
			item.PublicDiscovery = *req.PublicDiscovery
		}
		if req.VideoRef != nil && *req.VideoRef != item.VideoRef {
			releasedRefs = append(releasedRefs, item.VideoRef)
			item.VideoRef = *req.VideoRef
		}
		if req.ThumbnailRef != nil && *req.ThumbnailRef != item.ThumbnailRef {
			releasedRefs = append(releasedRefs, item.ThumbnailRef)
			item.ThumbnailRef = *req.ThumbnailRef
		}
		item.UpdatedAt = s.now()

		if err := repo.UpdateContent(ctx, item); err != nil {
			return err
		}

		// Projections that represent current discovery state follow the
		// edit. Post snapshots stay as they were at publish time.
		if err := s.replicator.syncLibrary(ctx, repo, item); err != nil {
			return err
		}
		return s.replicator.refreshPublic(ctx, repo, item)
	})
	if err != nil {
		return nil, wrapTx("edit", err)
	}

	// Old media is released only after the new reference is committed.
	s.releaseMedia(ctx, releasedRefs)

	return item, nil
}

func (s *service) ScheduleContent(ctx context.Context, id uuid.UUID, at time.Time) (*ContentItem, error) {
	var item *ContentItem

	err := s.repository.InTx(ctx, func(repo Repository) error {
		var err error
		item, err = repo.GetContent(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		if _, err := canSchedule(item.State, at, now); err != nil {
			return err
		}
		at = at.UTC()

		posts, err := repo.ListPostsByContent(ctx, id)
		if err != nil {
			return err
		}

		rescheduled := false
		for _, post := range posts {
			if post.State != PostStateScheduled {
				continue
			}
			post.ScheduledFor = at
			post.UpdatedAt = now
			if err := repo.UpdatePost(ctx, post); err != nil {
				return err
			}
			rescheduled = true
		}

		if !rescheduled {
			post, err := s.replicator.snapshotPost(ctx, repo, item, at)
			if err != nil {
				return err
			}
			item.PostIDs = append(item.PostIDs, post.ID)
		}

		item.State = ContentStateScheduled
		item.ScheduledFor = &at
		item.UpdatedAt = now
		return repo.UpdateContent(ctx, item)
	})
	if err != nil {
		return nil, wrapTx("schedule", err)
	}

	return item, nil
}

func (s *service) UnscheduleContent(ctx context.Context, id uuid.UUID) (*ContentItem, error) {
	var item *ContentItem

	err := s.repository.InTx(ctx, func(repo Repository) error {
		var err error
		item, err = repo.GetContent(ctx, id)
		if err != nil {
			return err
		}
		if _, err := canUnschedule(item.State); err != nil {
			return err
		}

		posts, err := repo.ListPostsByContent(ctx, id)
		if err != nil {
			return err
		}

		// Most recent pending snapshot is the one being withdrawn.
		var pending *PublishedPost
		for _, post := range posts {
			if post.State != PostStateScheduled {
				continue
			}
			if pending == nil || post.CreatedAt.After(pending.CreatedAt) {
				pending = post
			}
		}
		if pending == nil {
			return ErrNotScheduled
		}

		if err := repo.DeletePost(ctx, pending.ID); err != nil {
			return err
		}

		item.PostIDs = removeID(item.PostIDs, pending.ID)
		item.State = ContentStateDraft
		item.ScheduledFor = nil
		item.UpdatedAt = s.now()
		return repo.UpdateContent(ctx, item)
	})
	if err != nil {
		return nil, wrapTx("unschedule", err)
	}

	return item, nil
}

func (s *service) PublishContent(ctx context.Context, id uuid.UUID) error {
	err := s.repository.InTx(ctx, func(repo Repository) error {
		item, err := repo.GetContent(ctx, id)
		if err != nil {
			return err
		}

		posts, err := repo.ListPostsByContent(ctx, id)
		if err != nil {
			return err
		}

		var pending *PublishedPost
		for _, post := range posts {
			if post.State == PostStateScheduled {
				pending = post
				break
			}
		}
		if pending == nil {
			return ErrNotScheduled
		}

		// Re-read under a row lock. A promotion committed by a concurrent
		// transaction after the scan above shows up here as a state change
		// and fails canPublish, so the post is promoted exactly once.
		pending, err = repo.GetPostForUpdate(ctx, pending.ID)
		if err != nil {
			if errorsIsAny(err, ErrPostNotFound) {
				return ErrNotScheduled
			}
			return err
		}
		if _, err := canPublish(pending.State); err != nil {
			return err
		}

		now := s.now()
		pending.State = PostStateLive
		pending.PostedAt = &now
		pending.UpdatedAt = now
		if err := repo.UpdatePost(ctx, pending); err != nil {
			return err
		}

		item.State = ContentStatePublished
		item.ScheduledFor = nil
		item.PublishHistory = append(item.PublishHistory, now)
		item.UpdatedAt = now
		if err := repo.UpdateContent(ctx, item); err != nil {
			return err
		}

		if item.PublicDiscovery || item.IsPublic() {
			if _, err := s.replicator.projectPublic(ctx, repo, item, pending); err != nil {
				return err
			}
		}
		return nil
	})
	return wrapTx("publish", err)
}

func (s *service) DeleteContent(ctx context.Context, id uuid.UUID) error {
	var releasedRefs []string

	err := s.repository.InTx(ctx, func(repo Repository) error {
		item, err := repo.GetContent(ctx, id)
		if err != nil {
			return err
		}
		releasedRefs = append(releasedRefs, item.VideoRef, item.ThumbnailRef)

		posts, err := repo.ListPostsByContent(ctx, id)
		if err != nil {
			return err
		}
		for _, post := range posts {
			if err := repo.DeleteInteractionsByPost(ctx, post.ID); err != nil {
				return err
			}
		}
		if err := repo.DeletePostsByContent(ctx, id); err != nil {
			return err
		}
		if err := repo.DeleteLibraryEntryByContent(ctx, id); err != nil {
			return err
		}
		if err := repo.DeletePublicEntriesByContent(ctx, id); err != nil {
			return err
		}
		return repo.DeleteContent(ctx, id)
	})
	if err != nil {
		return wrapTx("delete", err)
	}

	// Object deletions are best-effort once the rows are gone; a storage
	// outage must not resurrect a deleted record.
	s.releaseMedia(ctx, releasedRefs)

	return nil
}

// Read operations

func (s *service) GetContent(ctx context.Context, id uuid.UUID) (*ContentItem, error) {
	item, err := s.repository.GetContent(ctx, id)
	if err != nil {
		return nil, &ContentError{ContentID: id, Op: "get", Err: err}
	}
	return item, nil
}

func (s *service) ListContentByCreator(ctx context.Context, creatorID uuid.UUID) ([]*ContentItem, error) {
	return s.repository.ListContentByCreator(ctx, creatorID)
}

func (s *service) SearchContentByCreator(ctx context.Context, creatorID uuid.UUID, query string) ([]*ContentItem, error) {
	return s.repository.SearchContentByCreator(ctx, creatorID, query)
}

func (s *service) ListLibraryByCreator(ctx context.Context, creatorID uuid.UUID) ([]*LibraryEntry, error) {
	return s.repository.ListLibraryByCreator(ctx, creatorID)
}

func (s *service) GetPost(ctx context.Context, id uuid.UUID) (*PublishedPost, error) {
	return s.repository.GetPost(ctx, id)
}

// Feed operations

func (s *service) ListPostsByCreator(ctx context.Context, creatorID uuid.UUID) ([]*PublishedPost, error) {
	return s.repository.ListPostsByCreator(ctx, creatorID)
}

func (s *service) ListPublicFeed(ctx context.Context) ([]*PublicEntry, error) {
	return s.repository.ListPublicEntries(ctx)
}

func (s *service) ListForYouFeed(ctx context.Context, creatorIDs []uuid.UUID) ([]*FeedItem, error) {
	now := s.now()
	seen := make(map[uuid.UUID]bool)
	var feed []*FeedItem

	for _, creatorID := range creatorIDs {
		posts, err := s.repository.ListPostsByCreator(ctx, creatorID)
		if err != nil {
			return nil, err
		}
		for _, post := range posts {
			if post.State != PostStateLive || post.PostedAt == nil || post.PostedAt.After(now) {
				continue
			}
			if seen[post.ID] {
				continue
			}
			seen[post.ID] = true
			feed = append(feed, &FeedItem{
				PostID:       post.ID,
				ContentID:    post.ContentID,
				CreatorID:    post.CreatorID,
				CreatorName:  post.CreatorName,
				Title:        post.Title,
				Focus:        post.Focus,
				Description:  post.Description,
				VideoRef:     post.VideoRef,
				ThumbnailRef: post.ThumbnailRef,
				Tags:         post.Tags,
				PostedAt:     *post.PostedAt,
				Source:       FeedSourceSubscribed,
				Likes:        post.Likes,
				Dislikes:     post.Dislikes,
				Views:        post.Views,
			})
		}
	}

	entries, err := s.repository.ListPublicEntriesByCreators(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if seen[entry.PostID] {
			continue
		}
		seen[entry.PostID] = true
		item := &FeedItem{
			PostID:       entry.PostID,
			ContentID:    entry.ContentID,
			CreatorID:    entry.CreatorID,
			CreatorName:  entry.CreatorName,
			Title:        entry.Title,
			Focus:        entry.Focus,
			Description:  entry.Description,
			VideoRef:     entry.VideoRef,
			ThumbnailRef: entry.ThumbnailRef,
			Tags:         entry.Tags,
			PostedAt:     entry.PostedAt,
			Source:       FeedSourcePublic,
		}
		if post, err := s.repository.GetPost(ctx, entry.PostID); err == nil {
			item.Likes = post.Likes
			item.Dislikes = post.Dislikes
			item.Views = post.Views
		}
		feed = append(feed, item)
	}

	sort.Slice(feed, func(i, j int) bool {
		return feed[i].PostedAt.After(feed[j].PostedAt)
	})

	return feed, nil
}

// Interaction ledger operations

func (s *service) LikePost(ctx context.Context, userID string, postID uuid.UUID) (*InteractionResult, error) {
	return s.applyInteraction(ctx, userID, postID, "like", func(rec *InteractionRecord, post *PublishedPost) bool {
		if rec.Disliked {
			rec.Disliked = false
			if post.Dislikes > 0 {
				post.Dislikes--
			}
		}
		if rec.Liked {
			return false
		}
		rec.Liked = true
		post.Likes++
		return true
	})
}

func (s *service) DislikePost(ctx context.Context, userID string, postID uuid.UUID) (*InteractionResult, error) {
	return s.applyInteraction(ctx, userID, postID, "dislike", func(rec *InteractionRecord, post *PublishedPost) bool {
		if rec.Liked {
			rec.Liked = false
			if post.Likes > 0 {
				post.Likes--
			}
		}
		if rec.Disliked {
			return false
		}
		rec.Disliked = true
		post.Dislikes++
		return true
	})
}

func (s *service) ViewPost(ctx context.Context, userID string, postID uuid.UUID) (*InteractionResult, error) {
	return s.applyInteraction(ctx, userID, postID, "view", func(rec *InteractionRecord, post *PublishedPost) bool {
		if rec.Viewed {
			return false
		}
		rec.Viewed = true
		post.Views++
		return true
	})
}

// applyInteraction runs the fetch-or-create, mutate, and counter update for
// one engagement record within a single transaction. The post is read under
// a row lock so concurrent interactions serialize and no counter update is
// lost.
func (s *service) applyInteraction(ctx context.Context, userID string, postID uuid.UUID, op string, mutate func(*InteractionRecord, *PublishedPost) bool) (*InteractionResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	var result *InteractionResult
	err := s.repository.InTx(ctx, func(repo Repository) error {
		post, err := repo.GetPostForUpdate(ctx, postID)
		if err != nil {
			return err
		}

		now := s.now()
		rec, err := repo.GetInteraction(ctx, userID, postID)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = &InteractionRecord{
				UserID:    userID,
				PostID:    postID,
				CreatedAt: now,
			}
		}

		applied := mutate(rec, post)
		rec.UpdatedAt = now

		if err := repo.SaveInteraction(ctx, rec); err != nil {
			return err
		}
		if applied {
			post.UpdatedAt = now
			if err := repo.UpdatePost(ctx, post); err != nil {
				return err
			}
		}

		result = &InteractionResult{
			Applied:  applied,
			Likes:    post.Likes,
			Dislikes: post.Dislikes,
			Views:    post.Views,
		}
		return nil
	})
	if err != nil {
		return nil, wrapTx(op, err)
	}

	return result, nil
}

// Helpers

func (s *service) releaseMedia(ctx context.Context, refs []string) {
	if s.blobStore == nil {
		return
	}
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := s.blobStore.Delete(ctx, ref); err != nil {
			s.logger.Error("failed to release media object", "key", ref, "error", err)
		}
	}
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

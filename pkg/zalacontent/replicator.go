package zalacontent

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// replicator projects a canonical ContentItem into its denormalized views:
// post snapshots, the creator library table and the public discovery table.
// Callers hand it the transactional Repository they are already working in,
// so projection writes commit or roll back with the triggering mutation.
type replicator struct {
	now func() time.Time
}

func newReplicator(now func() time.Time) *replicator {
	return &replicator{now: now}
}

// snapshotPost copies the item's content fields into a new PublishedPost in
// sub-state "scheduled". Snapshot fields never change after this point.
func (r *replicator) snapshotPost(ctx context.Context, repo Repository, item *ContentItem, at time.Time) (*PublishedPost, error) {
	now := r.now()
	post := &PublishedPost{
		ID:            uuid.New(),
		ContentID:     item.ID,
		CreatorID:     item.CreatorID,
		CreatorName:   item.CreatorName,
		Title:         item.Title,
		Focus:         item.Focus,
		Description:   item.Description,
		VideoRef:      item.VideoRef,
		ThumbnailRef:  item.ThumbnailRef,
		Tags:          append([]string(nil), item.Tags...),
		Accessibility: append([]string(nil), item.Accessibility...),
		State:         PostStateScheduled,
		ScheduledFor:  at,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// syncLibrary reconciles the item's library projection with its flag:
// inserts or refreshes the entry when set, removes it when cleared.
func (r *replicator) syncLibrary(ctx context.Context, repo Repository, item *ContentItem) error {
	if !item.InLibrary {
		return repo.DeleteLibraryEntryByContent(ctx, item.ID)
	}

	now := r.now()
	entry := &LibraryEntry{
		ContentID:    item.ID,
		CreatorID:    item.CreatorID,
		Title:        item.Title,
		Focus:        item.Focus,
		Description:  item.Description,
		ThumbnailRef: item.ThumbnailRef,
		Tags:         append([]string(nil), item.Tags...),
		UpdatedAt:    now,
	}
	if existing, err := repo.GetLibraryEntryByContent(ctx, item.ID); err == nil && existing != nil {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	} else {
		entry.ID = uuid.New()
		entry.CreatedAt = now
	}
	return repo.UpsertLibraryEntry(ctx, entry)
}

// projectPublic inserts a discovery row for a post that just went live.
func (r *replicator) projectPublic(ctx context.Context, repo Repository, item *ContentItem, post *PublishedPost) (*PublicEntry, error) {
	postedAt := r.now()
	if post.PostedAt != nil {
		postedAt = *post.PostedAt
	}
	entry := &PublicEntry{
		ID:           uuid.New(),
		ContentID:    item.ID,
		PostID:       post.ID,
		CreatorID:    item.CreatorID,
		CreatorName:  item.CreatorName,
		Title:        post.Title,
		Focus:        post.Focus,
		Description:  post.Description,
		VideoRef:     post.VideoRef,
		ThumbnailRef: post.ThumbnailRef,
		Tags:         append([]string(nil), post.Tags...),
		PostedAt:     postedAt,
		CreatedAt:    r.now(),
	}
	if err := repo.CreatePublicEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// refreshPublic reconciles the item's discovery rows with its current
// content and visibility after an edit. Rows are rebuilt from the item's
// live posts, so a flag turned on after publishing gains its rows and a
// cleared flag loses them. Row identity and posted time survive the rebuild.
func (r *replicator) refreshPublic(ctx context.Context, repo Repository, item *ContentItem) error {
	if !item.PublicDiscovery && !item.IsPublic() {
		return repo.DeletePublicEntriesByContent(ctx, item.ID)
	}

	existing, err := repo.ListPublicEntriesByContent(ctx, item.ID)
	if err != nil {
		return err
	}
	byPost := make(map[uuid.UUID]*PublicEntry, len(existing))
	for _, entry := range existing {
		byPost[entry.PostID] = entry
	}

	posts, err := repo.ListPostsByContent(ctx, item.ID)
	if err != nil {
		return err
	}

	var replacements []*PublicEntry
	for _, post := range posts {
		if post.State != PostStateLive || post.PostedAt == nil {
			continue
		}
		entry := &PublicEntry{
			ID:           uuid.New(),
			ContentID:    item.ID,
			PostID:       post.ID,
			CreatorID:    item.CreatorID,
			CreatorName:  item.CreatorName,
			Title:        item.Title,
			Focus:        item.Focus,
			Description:  item.Description,
			VideoRef:     item.VideoRef,
			ThumbnailRef: item.ThumbnailRef,
			Tags:         append([]string(nil), item.Tags...),
			PostedAt:     *post.PostedAt,
			CreatedAt:    r.now(),
		}
		if old, ok := byPost[post.ID]; ok {
			entry.ID = old.ID
			entry.CreatedAt = old.CreatedAt
		}
		replacements = append(replacements, entry)
	}
	if len(existing) == 0 && len(replacements) == 0 {
		return nil
	}
	return repo.ReplacePublicEntriesByContent(ctx, item.ID, replacements)
}

package zalacontent

import (
	"time"

	"github.com/google/uuid"
)

// ContentState is the domain type for content lifecycle states.
type ContentState string

// Content lifecycle states (typed).
const (
	ContentStateDraft     ContentState = "draft"
	ContentStateScheduled ContentState = "scheduled"
	ContentStatePublished ContentState = "published"
)

// PostState is the lifecycle sub-state of a published-post snapshot.
type PostState string

// Post sub-states (typed).
const (
	PostStateScheduled PostState = "scheduled"
	PostStateLive      PostState = "live"
)

// Accessibility values recognized on content.
const (
	AccessPublic      = "public"
	AccessSubscribers = "subscribers"
)

// ContentItem is the canonical creator-authored content record. It is the
// only entity mutated directly by API calls; posts and discovery entries are
// projections maintained by the replicator and the scheduler.
type ContentItem struct {
	ID                uuid.UUID    `json:"id"`
	CreatorID         uuid.UUID    `json:"creator_id"`
	CreatorName       string       `json:"creator_name,omitempty"`
	CreatorProfileURL string       `json:"creator_profile_url,omitempty"`
	Title             string       `json:"title"`
	Focus             string       `json:"focus,omitempty"`
	Description       string       `json:"description,omitempty"`
	VideoRef          string       `json:"video_ref,omitempty"`
	ThumbnailRef      string       `json:"thumbnail_ref,omitempty"`
	Tags              []string     `json:"tags,omitempty"`
	Accessibility     []string     `json:"accessibility,omitempty"`
	OrgID             string       `json:"org_id,omitempty"`
	InLibrary         bool         `json:"in_library"`
	PublicDiscovery   bool         `json:"public_discovery"`
	State             ContentState `json:"state"`
	ScheduledFor      *time.Time   `json:"scheduled_for,omitempty"`
	PostIDs           []uuid.UUID  `json:"post_ids,omitempty"`
	PublishHistory    []time.Time  `json:"publish_history,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// IsPublic reports whether the item's accessibility set includes "public".
func (c *ContentItem) IsPublic() bool {
	for _, a := range c.Accessibility {
		if a == AccessPublic {
			return true
		}
	}
	return false
}

// PublishedPost is a point-in-time snapshot of a ContentItem taken when the
// item is scheduled. Content fields are immutable after creation; only the
// sub-state, timestamps and engagement counters change.
type PublishedPost struct {
	ID            uuid.UUID  `json:"id"`
	ContentID     uuid.UUID  `json:"content_id"`
	CreatorID     uuid.UUID  `json:"creator_id"`
	CreatorName   string     `json:"creator_name,omitempty"`
	Title         string     `json:"title"`
	Focus         string     `json:"focus,omitempty"`
	Description   string     `json:"description,omitempty"`
	VideoRef      string     `json:"video_ref,omitempty"`
	ThumbnailRef  string     `json:"thumbnail_ref,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Accessibility []string   `json:"accessibility,omitempty"`
	State         PostState  `json:"state"`
	ScheduledFor  time.Time  `json:"scheduled_for"`
	PostedAt      *time.Time `json:"posted_at,omitempty"`
	Likes         int64      `json:"likes"`
	Dislikes      int64      `json:"dislikes"`
	Views         int64      `json:"views"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// LibraryEntry is the per-creator library projection of a ContentItem,
// present iff the item's library flag is set. At most one per item.
type LibraryEntry struct {
	ID           uuid.UUID `json:"id"`
	ContentID    uuid.UUID `json:"content_id"`
	CreatorID    uuid.UUID `json:"creator_id"`
	Title        string    `json:"title"`
	Focus        string    `json:"focus,omitempty"`
	Description  string    `json:"description,omitempty"`
	ThumbnailRef string    `json:"thumbnail_ref,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicEntry is the cross-creator discovery projection created when a public
// item goes live. Rows are append/remove-only; an edit replaces the whole
// snapshot rather than patching fields.
type PublicEntry struct {
	ID           uuid.UUID `json:"id"`
	ContentID    uuid.UUID `json:"content_id"`
	PostID       uuid.UUID `json:"post_id"`
	CreatorID    uuid.UUID `json:"creator_id"`
	CreatorName  string    `json:"creator_name,omitempty"`
	Title        string    `json:"title"`
	Focus        string    `json:"focus,omitempty"`
	Description  string    `json:"description,omitempty"`
	VideoRef     string    `json:"video_ref,omitempty"`
	ThumbnailRef string    `json:"thumbnail_ref,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	PostedAt     time.Time `json:"posted_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// InteractionRecord deduplicates engagement per (user, post). Liked and
// disliked are mutually exclusive; the record is created lazily on first
// interaction and only ever updated afterwards.
type InteractionRecord struct {
	UserID    string    `json:"user_id"`
	PostID    uuid.UUID `json:"post_id"`
	Liked     bool      `json:"liked"`
	Disliked  bool      `json:"disliked"`
	Viewed    bool      `json:"viewed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InteractionResult reports the outcome of a like/dislike/view call along
// with the post's updated running totals.
type InteractionResult struct {
	Applied  bool  `json:"applied"`
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
	Views    int64 `json:"views"`
}

// FeedItem is one entry of the merged "for you" feed. Source distinguishes a
// subscribed-creator post from a public-discovery entry.
type FeedItem struct {
	PostID       uuid.UUID `json:"post_id"`
	ContentID    uuid.UUID `json:"content_id"`
	CreatorID    uuid.UUID `json:"creator_id"`
	CreatorName  string    `json:"creator_name,omitempty"`
	Title        string    `json:"title"`
	Focus        string    `json:"focus,omitempty"`
	Description  string    `json:"description,omitempty"`
	VideoRef     string    `json:"video_ref,omitempty"`
	ThumbnailRef string    `json:"thumbnail_ref,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	PostedAt     time.Time `json:"posted_at"`
	Source       string    `json:"source"`
	Likes        int64     `json:"likes"`
	Dislikes     int64     `json:"dislikes"`
	Views        int64     `json:"views"`
}

// Feed item sources.
const (
	FeedSourceSubscribed = "subscribed"
	FeedSourcePublic     = "public"
)

// Identity describes the caller as supplied by the identity collaborator.
// The engine treats all three fields as opaque strings.
type Identity struct {
	CallerID    string
	DisplayName string
	Email       string
}

package zalacontent

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service defines the main interface for the content lifecycle engine
type Service interface {
	// Lifecycle operations
	CreateContent(ctx context.Context, req CreateContentRequest) (*ContentItem, error)
	EditContent(ctx context.Context, req EditContentRequest) (*ContentItem, error)
	DeleteContent(ctx context.Context, id uuid.UUID) error
	ScheduleContent(ctx context.Context, id uuid.UUID, at time.Time) (*ContentItem, error)
	UnscheduleContent(ctx context.Context, id uuid.UUID) (*ContentItem, error)

	// PublishContent promotes a pending scheduled post to live. It is
	// normally driven by the Scheduler; it is idempotent in the sense that
	// an item with no pending scheduled post is reported via ErrNotScheduled.
	PublishContent(ctx context.Context, id uuid.UUID) error

	// Read operations
	GetContent(ctx context.Context, id uuid.UUID) (*ContentItem, error)
	ListContentByCreator(ctx context.Context, creatorID uuid.UUID) ([]*ContentItem, error)
	SearchContentByCreator(ctx context.Context, creatorID uuid.UUID, query string) ([]*ContentItem, error)
	ListLibraryByCreator(ctx context.Context, creatorID uuid.UUID) ([]*LibraryEntry, error)

	// Feed operations
	ListPostsByCreator(ctx context.Context, creatorID uuid.UUID) ([]*PublishedPost, error)
	ListPublicFeed(ctx context.Context) ([]*PublicEntry, error)
	ListForYouFeed(ctx context.Context, creatorIDs []uuid.UUID) ([]*FeedItem, error)
	GetPost(ctx context.Context, id uuid.UUID) (*PublishedPost, error)

	// Interaction ledger operations
	LikePost(ctx context.Context, userID string, postID uuid.UUID) (*InteractionResult, error)
	DislikePost(ctx context.Context, userID string, postID uuid.UUID) (*InteractionResult, error)
	ViewPost(ctx context.Context, userID string, postID uuid.UUID) (*InteractionResult, error)
}

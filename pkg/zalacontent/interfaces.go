package zalacontent

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for object storage backends. Media bytes
// are uploaded before the content mutation that records their key; Delete is
// best-effort cleanup after a committed state change.
type BlobStore interface {
	// Upload uploads content with additional parameters
	Upload(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for a stored object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// GetDownloadURL returns a URL for downloading content
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}

// Repository defines the interface for content, post, projection and
// interaction persistence.
//
// InTx runs fn against a transactional view of the repository. All writes
// made through the Repository passed to fn commit together or not at all;
// an error from fn rolls everything back. Every multi-row mutation in the
// service goes through InTx.
type Repository interface {
	InTx(ctx context.Context, fn func(Repository) error) error

	// Content operations
	CreateContent(ctx context.Context, item *ContentItem) error
	GetContent(ctx context.Context, id uuid.UUID) (*ContentItem, error)
	UpdateContent(ctx context.Context, item *ContentItem) error
	DeleteContent(ctx context.Context, id uuid.UUID) error
	ListContentByCreator(ctx context.Context, creatorID uuid.UUID) ([]*ContentItem, error)
	SearchContentByCreator(ctx context.Context, creatorID uuid.UUID, query string) ([]*ContentItem, error)

	// Published post operations. GetPostForUpdate reads the post and holds a
	// write lock on its row for the rest of the enclosing transaction, so
	// state checks and counter math based on the returned value cannot race
	// with another transaction's write to the same row.
	CreatePost(ctx context.Context, post *PublishedPost) error
	GetPost(ctx context.Context, id uuid.UUID) (*PublishedPost, error)
	GetPostForUpdate(ctx context.Context, id uuid.UUID) (*PublishedPost, error)
	UpdatePost(ctx context.Context, post *PublishedPost) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	ListPostsByContent(ctx context.Context, contentID uuid.UUID) ([]*PublishedPost, error)
	ListPostsByCreator(ctx context.Context, creatorID uuid.UUID) ([]*PublishedPost, error)
	DeletePostsByContent(ctx context.Context, contentID uuid.UUID) error

	// ListDuePosts returns posts still in sub-state "scheduled" whose
	// scheduled time is at or before now.
	ListDuePosts(ctx context.Context, now time.Time) ([]*PublishedPost, error)

	// Library projection operations
	UpsertLibraryEntry(ctx context.Context, entry *LibraryEntry) error
	GetLibraryEntryByContent(ctx context.Context, contentID uuid.UUID) (*LibraryEntry, error)
	DeleteLibraryEntryByContent(ctx context.Context, contentID uuid.UUID) error
	ListLibraryByCreator(ctx context.Context, creatorID uuid.UUID) ([]*LibraryEntry, error)

	// Public discovery projection operations
	CreatePublicEntry(ctx context.Context, entry *PublicEntry) error
	DeletePublicEntriesByContent(ctx context.Context, contentID uuid.UUID) error
	ListPublicEntries(ctx context.Context) ([]*PublicEntry, error)
	ListPublicEntriesByCreators(ctx context.Context, creatorIDs []uuid.UUID) ([]*PublicEntry, error)
	ListPublicEntriesByContent(ctx context.Context, contentID uuid.UUID) ([]*PublicEntry, error)
	ReplacePublicEntriesByContent(ctx context.Context, contentID uuid.UUID, entries []*PublicEntry) error

	// Interaction ledger operations. GetInteraction returns (nil, nil) when
	// no record exists for the pair yet.
	GetInteraction(ctx context.Context, userID string, postID uuid.UUID) (*InteractionRecord, error)
	SaveInteraction(ctx context.Context, record *InteractionRecord) error
	DeleteInteractionsByPost(ctx context.Context, postID uuid.UUID) error
}

// IdentityProvider resolves the caller identity for the current request.
// Implementations are expected to read request-scoped values (e.g. verified
// token claims) from the context.
type IdentityProvider interface {
	Identity(ctx context.Context) (Identity, error)
}

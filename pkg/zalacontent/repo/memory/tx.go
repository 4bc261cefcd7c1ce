package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zala-app/content-engine/pkg/zalacontent"
)

// Locked delegation: Repository methods take the store lock and forward to
// state. txRepository runs inside InTx, which already holds the write lock,
// so its methods forward without locking.

func (r *Repository) CreateContent(ctx context.Context, item *zalacontent.ContentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.createContent(item)
}

func (r *Repository) GetContent(ctx context.Context, id uuid.UUID) (*zalacontent.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.getContent(id)
}

func (r *Repository) UpdateContent(ctx context.Context, item *zalacontent.ContentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.updateContent(item)
}

func (r *Repository) DeleteContent(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.deleteContent(id)
}

func (r *Repository) ListContentByCreator(ctx context.Context, creatorID uuid.UUID) ([]*zalacontent.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.listContentByCreator(creatorID)
}

func (r *Repository) SearchContentByCreator(ctx context.Context, creatorID uuid.UUID, query string) ([]*zalacontent.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.searchContentByCreator(creatorID, query)
}

func (r *Repository) CreatePost(ctx context.Context, post *zalacontent.PublishedPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.createPost(post)
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*zalacontent.PublishedPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.getPost(id)
}

func (r *Repository) GetPostForUpdate(ctx context.Context, id uuid.UUID) (*zalacontent.PublishedPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.getPost(id)
}

func (r *Repository) UpdatePost(ctx context.Context, post *zalacontent.PublishedPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.updatePost(post)
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.deletePost(id)
}

func (r *Repository) ListPostsByContent(ctx context.Context, contentID uuid.UUID) ([]*zalacontent.PublishedPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.listPostsByContent(contentID)
}

func (r *Repository) ListPostsByCreator(ctx context.Context, creatorID uuid.UUID) ([]*zalacontent.PublishedPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.listPostsByCreator(creatorID)
}

func (r *Repository) DeletePostsByContent(ctx context.Context, contentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.deletePostsByContent(contentID)
}

func (r *Repository) ListDuePosts(ctx context.Context, now time.Time) ([]*zalacontent.PublishedPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.listDuePosts(now)
}

func (r *Repository) UpsertLibraryEntry(ctx context.Context, entry *zalacontent.LibraryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.upsertLibraryEntry(entry)
}

func (r *Repository) GetLibraryEntryByContent(ctx context.Context, contentID uuid.UUID) (*zalacontent.LibraryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.getLibraryEntryByContent(contentID)
}

func (r *Repository) DeleteLibraryEntryByContent(ctx context.Context, contentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.deleteLibraryEntryByContent(contentID)
}

func (r *Repository) ListLibraryByCreator(ctx context.Context, creatorID uuid.UUID) ([]*zalacontent.LibraryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.listLibraryByCreator(creatorID)
}

func (r *Repository) CreatePublicEntry(ctx context.Context, entry *zalacontent.PublicEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.createPublicEntry(entry)
}

func (r *Repository) DeletePublicEntriesByContent(ctx context.Context, contentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.deletePublicEntriesByContent(contentID)
}

func (r *Repository) ListPublicEntries(ctx context.Context) ([]*zalacontent.PublicEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.listPublicEntries()
}

func (r *Repository) ListPublicEntriesByCreators(ctx context.Context, creatorIDs []uuid.UUID) ([]*zalacontent.PublicEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.listPublicEntriesByCreators(creatorIDs)
}

func (r *Repository) ListPublicEntriesByContent(ctx context.Context, contentID uuid.UUID) ([]*zalacontent.PublicEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.listPublicEntriesByContent(contentID)
}

func (r *Repository) ReplacePublicEntriesByContent(ctx context.Context, contentID uuid.UUID, entries []*zalacontent.PublicEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.replacePublicEntriesByContent(contentID, entries)
}

func (r *Repository) GetInteraction(ctx context.Context, userID string, postID uuid.UUID) (*zalacontent.InteractionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.getInteraction(userID, postID)
}

func (r *Repository) SaveInteraction(ctx context.Context, rec *zalacontent.InteractionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.saveInteraction(rec)
}

func (r *Repository) DeleteInteractionsByPost(ctx context.Context, postID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.deleteInteractionsByPost(postID)
}

// txRepository is the transactional view handed to InTx callbacks.
type txRepository struct {
	s *state
}

// InTx joins the enclosing transaction.
func (t *txRepository) InTx(ctx context.Context, fn func(zalacontent.Repository) error) error {
	return fn(t)
}

func (t *txRepository) CreateContent(ctx context.Context, item *zalacontent.ContentItem) error {
	return t.s.createContent(item)
}

func (t *txRepository) GetContent(ctx context.Context, id uuid.UUID) (*zalacontent.ContentItem, error) {
	return t.s.getContent(id)
}

func (t *txRepository) UpdateContent(ctx context.Context, item *zalacontent.ContentItem) error {
	return t.s.updateContent(item)
}

func (t *txRepository) DeleteContent(ctx context.Context, id uuid.UUID) error {
	return t.s.deleteContent(id)
}

func (t *txRepository) ListContentByCreator(ctx context.Context, creatorID uuid.UUID) ([]*zalacontent.ContentItem, error) {
	return t.s.listContentByCreator(creatorID)
}

func (t *txRepository) SearchContentByCreator(ctx context.Context, creatorID uuid.UUID, query string) ([]*zalacontent.ContentItem, error) {
	return t.s.searchContentByCreator(creatorID, query)
}

func (t *txRepository) CreatePost(ctx context.Context, post *zalacontent.PublishedPost) error {
	return t.s.createPost(post)
}

func (t *txRepository) GetPost(ctx context.Context, id uuid.UUID) (*zalacontent.PublishedPost, error) {
	return t.s.getPost(id)
}

// GetPostForUpdate needs no row lock here; InTx already holds the store's
// write lock for the whole transaction.
func (t *txRepository) GetPostForUpdate(ctx context.Context, id uuid.UUID) (*zalacontent.PublishedPost, error) {
	return t.s.getPost(id)
}

func (t *txRepository) UpdatePost(ctx context.Context, post *zalacontent.PublishedPost) error {
	return t.s.updatePost(post)
}

func (t *txRepository) DeletePost(ctx context.Context, id uuid.UUID) error {
	return t.s.deletePost(id)
}

func (t *txRepository) ListPostsByContent(ctx context.Context, contentID uuid.UUID) ([]*zalacontent.PublishedPost, error) {
	return t.s.listPostsByContent(contentID)
}

func (t *txRepository) ListPostsByCreator(ctx context.Context, creatorID uuid.UUID) ([]*zalacontent.PublishedPost, error) {
	return t.s.listPostsByCreator(creatorID)
}

func (t *txRepository) DeletePostsByContent(ctx context.Context, contentID uuid.UUID) error {
	return t.s.deletePostsByContent(contentID)
}

func (t *txRepository) ListDuePosts(ctx context.Context, now time.Time) ([]*zalacontent.PublishedPost, error) {
	return t.s.listDuePosts(now)
}

func (t *txRepository) UpsertLibraryEntry(ctx context.Context, entry *zalacontent.LibraryEntry) error {
	return t.s.upsertLibraryEntry(entry)
}

func (t *txRepository) GetLibraryEntryByContent(ctx context.Context, contentID uuid.UUID) (*zalacontent.LibraryEntry, error) {
	return t.s.getLibraryEntryByContent(contentID)
}

func (t *txRepository) DeleteLibraryEntryByContent(ctx context.Context, contentID uuid.UUID) error {
	return t.s.deleteLibraryEntryByContent(contentID)
}

func (t *txRepository) ListLibraryByCreator(ctx context.Context, creatorID uuid.UUID) ([]*zalacontent.LibraryEntry, error) {
	return t.s.listLibraryByCreator(creatorID)
}

func (t *txRepository) CreatePublicEntry(ctx context.Context, entry *zalacontent.PublicEntry) error {
	return t.s.createPublicEntry(entry)
}

func (t *txRepository) DeletePublicEntriesByContent(ctx context.Context, contentID uuid.UUID) error {
	return t.s.deletePublicEntriesByContent(contentID)
}

func (t *txRepository) ListPublicEntries(ctx context.Context) ([]*zalacontent.PublicEntry, error) {
	return t.s.listPublicEntries()
}

func (t *txRepository) ListPublicEntriesByCreators(ctx context.Context, creatorIDs []uuid.UUID) ([]*zalacontent.PublicEntry, error) {
	return t.s.listPublicEntriesByCreators(creatorIDs)
}

func (t *txRepository) ListPublicEntriesByContent(ctx context.Context, contentID uuid.UUID) ([]*zalacontent.PublicEntry, error) {
	return t.s.listPublicEntriesByContent(contentID)
}

func (t *txRepository) ReplacePublicEntriesByContent(ctx context.Context, contentID uuid.UUID, entries []*zalacontent.PublicEntry) error {
	return t.s.replacePublicEntriesByContent(contentID, entries)
}

func (t *txRepository) GetInteraction(ctx context.Context, userID string, postID uuid.UUID) (*zalacontent.InteractionRecord, error) {
	return t.s.getInteraction(userID, postID)
}

func (t *txRepository) SaveInteraction(ctx context.Context, rec *zalacontent.InteractionRecord) error {
	return t.s.saveInteraction(rec)
}

func (t *txRepository) DeleteInteractionsByPost(ctx context.Context, postID uuid.UUID) error {
	return t.s.deleteInteractionsByPost(postID)
}

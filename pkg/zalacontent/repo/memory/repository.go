// Package memory provides an in-memory Repository used by tests and the
// development server. Transactions are realized by snapshotting the whole
// store under the write lock and restoring the snapshot if the transaction
// function fails.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zala-app/content-engine/pkg/zalacontent"
)

// Repository implements zalacontent.Repository using in-memory storage
type Repository struct {
	mu sync.RWMutex
	s  *state
}

// state holds all tables. Methods on state do not lock; locking is the
// responsibility of Repository and txRepository.
type state struct {
	contents     map[uuid.UUID]*zalacontent.ContentItem
	posts        map[uuid.UUID]*zalacontent.PublishedPost
	library      map[uuid.UUID]*zalacontent.LibraryEntry // keyed by content id
	public       map[uuid.UUID]*zalacontent.PublicEntry
	interactions map[string]*zalacontent.InteractionRecord
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{s: newState()}
}

func newState() *state {
	return &state{
		contents:     make(map[uuid.UUID]*zalacontent.ContentItem),
		posts:        make(map[uuid.UUID]*zalacontent.PublishedPost),
		library:      make(map[uuid.UUID]*zalacontent.LibraryEntry),
		public:       make(map[uuid.UUID]*zalacontent.PublicEntry),
		interactions: make(map[string]*zalacontent.InteractionRecord),
	}
}

func interactionKey(userID string, postID uuid.UUID) string {
	return fmt.Sprintf("%s|%s", userID, postID)
}

// Deep copies: slices on the records must not share backing arrays with
// caller-held values, or a rolled-back transaction could leak writes.

func copyContent(c *zalacontent.ContentItem) *zalacontent.ContentItem {
	cp := *c
	cp.Tags = append([]string(nil), c.Tags...)
	cp.Accessibility = append([]string(nil), c.Accessibility...)
	cp.PostIDs = append([]uuid.UUID(nil), c.PostIDs...)
	cp.PublishHistory = append([]time.Time(nil), c.PublishHistory...)
	if c.ScheduledFor != nil {
		at := *c.ScheduledFor
		cp.ScheduledFor = &at
	}
	return &cp
}

func copyPost(p *zalacontent.PublishedPost) *zalacontent.PublishedPost {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Accessibility = append([]string(nil), p.Accessibility...)
	if p.PostedAt != nil {
		at := *p.PostedAt
		cp.PostedAt = &at
	}
	return &cp
}

func copyLibraryEntry(e *zalacontent.LibraryEntry) *zalacontent.LibraryEntry {
	cp := *e
	cp.Tags = append([]string(nil), e.Tags...)
	return &cp
}

func copyPublicEntry(e *zalacontent.PublicEntry) *zalacontent.PublicEntry {
	cp := *e
	cp.Tags = append([]string(nil), e.Tags...)
	return &cp
}

func (s *state) clone() *state {
	cl := newState()
	for id, c := range s.contents {
		cl.contents[id] = copyContent(c)
	}
	for id, p := range s.posts {
		cl.posts[id] = copyPost(p)
	}
	for id, e := range s.library {
		cl.library[id] = copyLibraryEntry(e)
	}
	for id, e := range s.public {
		cl.public[id] = copyPublicEntry(e)
	}
	for k, rec := range s.interactions {
		cp := *rec
		cl.interactions[k] = &cp
	}
	return cl
}

// InTx snapshots the store, runs fn against an unlocked transactional view,
// and restores the snapshot if fn fails. Nested InTx calls join the
// enclosing transaction.
func (r *Repository) InTx(ctx context.Context, fn func(zalacontent.Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.s.clone()
	if err := fn(&txRepository{s: r.s}); err != nil {
		r.s = snapshot
		return err
	}
	return nil
}

// Content operations

func (s *state) createContent(item *zalacontent.ContentItem) error {
	s.contents[item.ID] = copyContent(item)
	return nil
}

func (s *state) getContent(id uuid.UUID) (*zalacontent.ContentItem, error) {
	item, exists := s.contents[id]
	if !exists {
		return nil, zalacontent.ErrContentNotFound
	}
	return copyContent(item), nil
}

func (s *state) updateContent(item *zalacontent.ContentItem) error {
	if _, exists := s.contents[item.ID]; !exists {
		return zalacontent.ErrContentNotFound
	}
	s.contents[item.ID] = copyContent(item)
	return nil
}

func (s *state) deleteContent(id uuid.UUID) error {
	if _, exists := s.contents[id]; !exists {
		return zalacontent.ErrContentNotFound
	}
	delete(s.contents, id)
	return nil
}

func (s *state) listContentByCreator(creatorID uuid.UUID) ([]*zalacontent.ContentItem, error) {
	var result []*zalacontent.ContentItem
	for _, item := range s.contents {
		if item.CreatorID == creatorID {
			result = append(result, copyContent(item))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *state) searchContentByCreator(creatorID uuid.UUID, query string) ([]*zalacontent.ContentItem, error) {
	all, _ := s.listContentByCreator(creatorID)
	if query == "" {
		return all, nil
	}
	q := strings.ToLower(query)
	var result []*zalacontent.ContentItem
	for _, item := range all {
		if strings.Contains(strings.ToLower(item.Title), q) ||
			strings.Contains(strings.ToLower(item.Focus), q) ||
			strings.Contains(strings.ToLower(item.Description), q) {
			result = append(result, item)
		}
	}
	return result, nil
}

// Post operations

func (s *state) createPost(post *zalacontent.PublishedPost) error {
	if _, exists := s.contents[post.ContentID]; !exists {
		return zalacontent.ErrContentNotFound
	}
	s.posts[post.ID] = copyPost(post)
	return nil
}

func (s *state) getPost(id uuid.UUID) (*zalacontent.PublishedPost, error) {
	post, exists := s.posts[id]
	if !exists {
		return nil, zalacontent.ErrPostNotFound
	}
	return copyPost(post), nil
}

func (s *state) updatePost(post *zalacontent.PublishedPost) error {
	if _, exists := s.posts[post.ID]; !exists {
		return zalacontent.ErrPostNotFound
	}
	s.posts[post.ID] = copyPost(post)
	return nil
}

func (s *state) deletePost(id uuid.UUID) error {
	if _, exists := s.posts[id]; !exists {
		return zalacontent.ErrPostNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *state) listPostsByContent(contentID uuid.UUID) ([]*zalacontent.PublishedPost, error) {
	var result []*zalacontent.PublishedPost
	for _, post := range s.posts {
		if post.ContentID == contentID {
			result = append(result, copyPost(post))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *state) listPostsByCreator(creatorID uuid.UUID) ([]*zalacontent.PublishedPost, error) {
	var result []*zalacontent.PublishedPost
	for _, post := range s.posts {
		if post.CreatorID == creatorID {
			result = append(result, copyPost(post))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return postTime(result[i]).After(postTime(result[j]))
	})
	return result, nil
}

func postTime(p *zalacontent.PublishedPost) time.Time {
	if p.PostedAt != nil {
		return *p.PostedAt
	}
	return p.ScheduledFor
}

func (s *state) deletePostsByContent(contentID uuid.UUID) error {
	for id, post := range s.posts {
		if post.ContentID == contentID {
			delete(s.posts, id)
		}
	}
	return nil
}

func (s *state) listDuePosts(now time.Time) ([]*zalacontent.PublishedPost, error) {
	var result []*zalacontent.PublishedPost
	for _, post := range s.posts {
		if post.State == zalacontent.PostStateScheduled && !post.ScheduledFor.After(now) {
			result = append(result, copyPost(post))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledFor.Before(result[j].ScheduledFor)
	})
	return result, nil
}

// Library projection operations

func (s *state) upsertLibraryEntry(entry *zalacontent.LibraryEntry) error {
	if _, exists := s.contents[entry.ContentID]; !exists {
		return zalacontent.ErrContentNotFound
	}
	s.library[entry.ContentID] = copyLibraryEntry(entry)
	return nil
}

func (s *state) getLibraryEntryByContent(contentID uuid.UUID) (*zalacontent.LibraryEntry, error) {
	entry, exists := s.library[contentID]
	if !exists {
		return nil, nil
	}
	return copyLibraryEntry(entry), nil
}

func (s *state) deleteLibraryEntryByContent(contentID uuid.UUID) error {
	delete(s.library, contentID)
	return nil
}

func (s *state) listLibraryByCreator(creatorID uuid.UUID) ([]*zalacontent.LibraryEntry, error) {
	var result []*zalacontent.LibraryEntry
	for _, entry := range s.library {
		if entry.CreatorID == creatorID {
			result = append(result, copyLibraryEntry(entry))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Public discovery projection operations

func (s *state) createPublicEntry(entry *zalacontent.PublicEntry) error {
	s.public[entry.ID] = copyPublicEntry(entry)
	return nil
}

func (s *state) deletePublicEntriesByContent(contentID uuid.UUID) error {
	for id, entry := range s.public {
		if entry.ContentID == contentID {
			delete(s.public, id)
		}
	}
	return nil
}

func (s *state) listPublicEntries() ([]*zalacontent.PublicEntry, error) {
	var result []*zalacontent.PublicEntry
	for _, entry := range s.public {
		result = append(result, copyPublicEntry(entry))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *state) listPublicEntriesByCreators(creatorIDs []uuid.UUID) ([]*zalacontent.PublicEntry, error) {
	wanted := make(map[uuid.UUID]bool, len(creatorIDs))
	for _, id := range creatorIDs {
		wanted[id] = true
	}
	var result []*zalacontent.PublicEntry
	for _, entry := range s.public {
		if wanted[entry.CreatorID] {
			result = append(result, copyPublicEntry(entry))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PostedAt.After(result[j].PostedAt)
	})
	return result, nil
}

func (s *state) listPublicEntriesByContent(contentID uuid.UUID) ([]*zalacontent.PublicEntry, error) {
	var result []*zalacontent.PublicEntry
	for _, entry := range s.public {
		if entry.ContentID == contentID {
			result = append(result, copyPublicEntry(entry))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *state) replacePublicEntriesByContent(contentID uuid.UUID, entries []*zalacontent.PublicEntry) error {
	if err := s.deletePublicEntriesByContent(contentID); err != nil {
		return err
	}
	for _, entry := range entries {
		s.public[entry.ID] = copyPublicEntry(entry)
	}
	return nil
}

// Interaction ledger operations

func (s *state) getInteraction(userID string, postID uuid.UUID) (*zalacontent.InteractionRecord, error) {
	rec, exists := s.interactions[interactionKey(userID, postID)]
	if !exists {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *state) saveInteraction(rec *zalacontent.InteractionRecord) error {
	cp := *rec
	s.interactions[interactionKey(rec.UserID, rec.PostID)] = &cp
	return nil
}

func (s *state) deleteInteractionsByPost(postID uuid.UUID) error {
	for k, rec := range s.interactions {
		if rec.PostID == postID {
			delete(s.interactions, k)
		}
	}
	return nil
}

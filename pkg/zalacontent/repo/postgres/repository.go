// Package postgres provides the PostgreSQL Repository. Expected tables:
// content, posts, zala_library, zala_public and interactions, with tags,
// accessibility and publish_history stored as array columns.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zala-app/content-engine/pkg/zalacontent"
)

// DBTX is an interface that allows us to use either a connection pool or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements zalacontent.Repository using PostgreSQL
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool
}

// NewWithPool creates a new PostgreSQL repository with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// InTx runs fn inside a database transaction. A Repository already bound to
// a transaction joins it instead of opening another.
func (r *Repository) InTx(ctx context.Context, fn func(zalacontent.Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txRepo := &Repository{db: tx}
	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit(ctx)
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "interactions") {
				return fmt.Errorf("interaction already exists")
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Content operations

const contentColumns = `id, creator_id, creator_name, creator_profile_url, title, focus,
	description, video_ref, thumbnail_ref, tags, accessibility, org_id,
	in_library, public_discovery, state, scheduled_for, publish_history,
	created_at, updated_at`

func (r *Repository) CreateContent(ctx context.Context, item *zalacontent.ContentItem) error {
	query := `
		INSERT INTO content (` + contentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.db.Exec(ctx, query,
		item.ID, item.CreatorID, item.CreatorName, item.CreatorProfileURL,
		item.Title, item.Focus, item.Description, item.VideoRef, item.ThumbnailRef,
		item.Tags, item.Accessibility, item.OrgID,
		item.InLibrary, item.PublicDiscovery, string(item.State), item.ScheduledFor,
		item.PublishHistory, item.CreatedAt, item.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create content", err)
	}

	return nil
}

func (r *Repository) scanContent(row pgx.Row) (*zalacontent.ContentItem, error) {
	var item zalacontent.ContentItem
	var state string
	err := row.Scan(
		&item.ID, &item.CreatorID, &item.CreatorName, &item.CreatorProfileURL,
		&item.Title, &item.Focus, &item.Description, &item.VideoRef, &item.ThumbnailRef,
		&item.Tags, &item.Accessibility, &item.OrgID,
		&item.InLibrary, &item.PublicDiscovery, &state, &item.ScheduledFor,
		&item.PublishHistory, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, zalacontent.ErrContentNotFound
		}
		return nil, err
	}
	item.State = zalacontent.ContentState(state)
	return &item, nil
}

func (r *Repository) GetContent(ctx context.Context, id uuid.UUID) (*zalacontent.ContentItem, error) {
	query := `SELECT ` + contentColumns + ` FROM content WHERE id = $1`

	item, err := r.scanContent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	// Published-instance ids are a proper one-to-many association, not an
	// array column on the content row.
	rows, err := r.db.Query(ctx,
		`SELECT id FROM posts WHERE content_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, r.handlePostgresError("get content posts", err)
	}
	defer rows.Close()
	for rows.Next() {
		var postID uuid.UUID
		if err := rows.Scan(&postID); err != nil {
			return nil, err
		}
		item.PostIDs = append(item.PostIDs, postID)
	}

	return item, rows.Err()
}

func (r *Repository) UpdateContent(ctx context.Context, item *zalacontent.ContentItem) error {
	query := `
		UPDATE content SET
			creator_name = $2, creator_profile_url = $3, title = $4, focus = $5,
			description = $6, video_ref = $7, thumbnail_ref = $8, tags = $9,
			accessibility = $10, org_id = $11, in_library = $12,
			public_discovery = $13, state = $14, scheduled_for = $15,
			publish_history = $16, updated_at = $17
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		item.ID, item.CreatorName, item.CreatorProfileURL, item.Title, item.Focus,
		item.Description, item.VideoRef, item.ThumbnailRef, item.Tags,
		item.Accessibility, item.OrgID, item.InLibrary,
		item.PublicDiscovery, string(item.State), item.ScheduledFor,
		item.PublishHistory, item.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update content", err)
	}
	if tag.RowsAffected() == 0 {
		return zalacontent.ErrContentNotFound
	}
	return nil
}

func (r *Repository) DeleteContent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM content WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete content", err)
	}
	if tag.RowsAffected() == 0 {
		return zalacontent.ErrContentNotFound
	}
	return nil
}

func (r *Repository) queryContent(ctx context.Context, query string, args ...interface{}) ([]*zalacontent.ContentItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*zalacontent.ContentItem
	for rows.Next() {
		item, err := r.scanContent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *Repository) ListContentByCreator(ctx context.Context, creatorID uuid.UUID) ([]*zalacontent.ContentItem, error) {
	query := `SELECT ` + contentColumns + `
		FROM content WHERE creator_id = $1 ORDER BY created_at DESC`
	return r.queryContent(ctx, query, creatorID)
}

func (r *Repository) SearchContentByCreator(ctx context.Context, creatorID uuid.UUID, search string) ([]*zalacontent.ContentItem, error) {
	query := `SELECT ` + contentColumns + `
		FROM content
		WHERE creator_id = $1
		  AND (title ILIKE '%' || $2 || '%'
		       OR focus ILIKE '%' || $2 || '%'
		       OR description ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC`
	return r.queryContent(ctx, query, creatorID, search)
}

// Post operations

const postColumns = `id, content_id, creator_id, creator_name, title, focus, description,
	video_ref, thumbnail_ref, tags, accessibility, state, scheduled_for,
	posted_at, likes, dislikes, views, created_at, updated_at`

func (r *Repository) CreatePost(ctx context.Context, post *zalacontent.PublishedPost) error {
	query := `
		INSERT INTO posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.db.Exec(ctx, query,
		post.ID, post.ContentID, post.CreatorID, post.CreatorName,
		post.Title, post.Focus, post.Description,
		post.VideoRef, post.ThumbnailRef, post.Tags, post.Accessibility,
		string(post.State), post.ScheduledFor, post.PostedAt,
		post.Likes, post.Dislikes, post.Views, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create post", err)
	}
	return nil
}

func (r *Repository) scanPost(row pgx.Row) (*zalacontent.PublishedPost, error) {
	var post zalacontent.PublishedPost
	var state string
	err := row.Scan(
		&post.ID, &post.ContentID, &post.CreatorID, &post.CreatorName,
		&post.Title, &post.Focus, &post.Description,
		&post.VideoRef, &post.ThumbnailRef, &post.Tags, &post.Accessibility,
		&state, &post.ScheduledFor, &post.PostedAt,
		&post.Likes, &post.Dislikes, &post.Views, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, zalacontent.ErrPostNotFound
		}
		return nil, err
	}
	post.State = zalacontent.PostState(state)
	return &post, nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*zalacontent.PublishedPost, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	return r.scanPost(r.db.QueryRow(ctx, query, id))
}

// GetPostForUpdate locks the row until the transaction ends. A concurrent
// transaction that already holds the lock commits first, and this read then
// returns the row it wrote.
func (r *Repository) GetPostForUpdate(ctx context.Context, id uuid.UUID) (*zalacontent.PublishedPost, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 FOR UPDATE`
	return r.scanPost(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) UpdatePost(ctx context.Context, post *zalacontent.PublishedPost) error {
	query := `
		UPDATE posts SET
			state = $2, scheduled_for = $3, posted_at = $4,
			likes = $5, dislikes = $6, views = $7, updated_at = $8
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		post.ID, string(post.State), post.ScheduledFor, post.PostedAt,
		post.Likes, post.Dislikes, post.Views, post.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update post", err)
	}
	if tag.RowsAffected() == 0 {
		return zalacontent.ErrPostNotFound
	}
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return zalacontent.ErrPostNotFound
	}
	return nil
}

func (r *Repository) queryPosts(ctx context.Context, query string, args ...interface{}) ([]*zalacontent.PublishedPost, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*zalacontent.PublishedPost
	for rows.Next() {
		post, err := r.scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, post)
	}
	return result, rows.Err()
}

func (r *Repository) ListPostsByContent(ctx context.Context, contentID uuid.UUID) ([]*zalacontent.PublishedPost, error) {
	query := `SELECT ` + postColumns + `
		FROM posts WHERE content_id = $1 ORDER BY created_at`
	return r.queryPosts(ctx, query, contentID)
}

func (r *Repository) ListPostsByCreator(ctx context.Context, creatorID uuid.UUID) ([]*zalacontent.PublishedPost, error) {
	query := `SELECT ` + postColumns + `
		FROM posts WHERE creator_id = $1
		ORDER BY COALESCE(posted_at, scheduled_for) DESC`
	return r.queryPosts(ctx, query, creatorID)
}

func (r *Repository) DeletePostsByContent(ctx context.Context, contentID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM posts WHERE content_id = $1`, contentID)
	if err != nil {
		return r.handlePostgresError("delete posts by content", err)
	}
	return nil
}

func (r *Repository) ListDuePosts(ctx context.Context, now time.Time) ([]*zalacontent.PublishedPost, error) {
	query := `SELECT ` + postColumns + `
		FROM posts WHERE state = 'scheduled' AND scheduled_for <= $1
		ORDER BY scheduled_for`
	return r.queryPosts(ctx, query, now)
}

// Library projection operations

const libraryColumns = `id, content_id, creator_id, title, focus, description,
	thumbnail_ref, tags, created_at, updated_at`

func (r *Repository) UpsertLibraryEntry(ctx context.Context, entry *zalacontent.LibraryEntry) error {
	query := `
		INSERT INTO zala_library (` + libraryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (content_id) DO UPDATE SET
			title = EXCLUDED.title, focus = EXCLUDED.focus,
			description = EXCLUDED.description,
			thumbnail_ref = EXCLUDED.thumbnail_ref, tags = EXCLUDED.tags,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.ContentID, entry.CreatorID, entry.Title, entry.Focus,
		entry.Description, entry.ThumbnailRef, entry.Tags,
		entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("upsert library entry", err)
	}
	return nil
}

func (r *Repository) scanLibraryEntry(row pgx.Row) (*zalacontent.LibraryEntry, error) {
	var entry zalacontent.LibraryEntry
	err := row.Scan(
		&entry.ID, &entry.ContentID, &entry.CreatorID, &entry.Title, &entry.Focus,
		&entry.Description, &entry.ThumbnailRef, &entry.Tags,
		&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) GetLibraryEntryByContent(ctx context.Context, contentID uuid.UUID) (*zalacontent.LibraryEntry, error) {
	query := `SELECT ` + libraryColumns + ` FROM zala_library WHERE content_id = $1`
	entry, err := r.scanLibraryEntry(r.db.QueryRow(ctx, query, contentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

func (r *Repository) DeleteLibraryEntryByContent(ctx context.Context, contentID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM zala_library WHERE content_id = $1`, contentID)
	if err != nil {
		return r.handlePostgresError("delete library entry", err)
	}
	return nil
}

func (r *Repository) ListLibraryByCreator(ctx context.Context, creatorID uuid.UUID) ([]*zalacontent.LibraryEntry, error) {
	query := `SELECT ` + libraryColumns + `
		FROM zala_library WHERE creator_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*zalacontent.LibraryEntry
	for rows.Next() {
		entry, err := r.scanLibraryEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// Public discovery projection operations

const publicColumns = `id, content_id, post_id, creator_id, creator_name, title, focus,
	description, video_ref, thumbnail_ref, tags, posted_at, created_at`

func (r *Repository) CreatePublicEntry(ctx context.Context, entry *zalacontent.PublicEntry) error {
	query := `
		INSERT INTO zala_public (` + publicColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.ContentID, entry.PostID, entry.CreatorID, entry.CreatorName,
		entry.Title, entry.Focus, entry.Description, entry.VideoRef,
		entry.ThumbnailRef, entry.Tags, entry.PostedAt, entry.CreatedAt)
	if err != nil {
		return r.handlePostgresError("create public entry", err)
	}
	return nil
}

func (r *Repository) scanPublicEntry(row pgx.Row) (*zalacontent.PublicEntry, error) {
	var entry zalacontent.PublicEntry
	err := row.Scan(
		&entry.ID, &entry.ContentID, &entry.PostID, &entry.CreatorID, &entry.CreatorName,
		&entry.Title, &entry.Focus, &entry.Description, &entry.VideoRef,
		&entry.ThumbnailRef, &entry.Tags, &entry.PostedAt, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) queryPublicEntries(ctx context.Context, query string, args ...interface{}) ([]*zalacontent.PublicEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*zalacontent.PublicEntry
	for rows.Next() {
		entry, err := r.scanPublicEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *Repository) DeletePublicEntriesByContent(ctx context.Context, contentID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM zala_public WHERE content_id = $1`, contentID)
	if err != nil {
		return r.handlePostgresError("delete public entries", err)
	}
	return nil
}

func (r *Repository) ListPublicEntries(ctx context.Context) ([]*zalacontent.PublicEntry, error) {
	query := `SELECT ` + publicColumns + ` FROM zala_public ORDER BY created_at DESC`
	return r.queryPublicEntries(ctx, query)
}

func (r *Repository) ListPublicEntriesByCreators(ctx context.Context, creatorIDs []uuid.UUID) ([]*zalacontent.PublicEntry, error) {
	query := `SELECT ` + publicColumns + `
		FROM zala_public WHERE creator_id = ANY($1) ORDER BY posted_at DESC`
	return r.queryPublicEntries(ctx, query, creatorIDs)
}

func (r *Repository) ListPublicEntriesByContent(ctx context.Context, contentID uuid.UUID) ([]*zalacontent.PublicEntry, error) {
	query := `SELECT ` + publicColumns + `
		FROM zala_public WHERE content_id = $1 ORDER BY created_at DESC`
	return r.queryPublicEntries(ctx, query, contentID)
}

func (r *Repository) ReplacePublicEntriesByContent(ctx context.Context, contentID uuid.UUID, entries []*zalacontent.PublicEntry) error {
	if err := r.DeletePublicEntriesByContent(ctx, contentID); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := r.CreatePublicEntry(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// Interaction ledger operations

func (r *Repository) GetInteraction(ctx context.Context, userID string, postID uuid.UUID) (*zalacontent.InteractionRecord, error) {
	query := `
		SELECT user_id, post_id, liked, disliked, viewed, created_at, updated_at
		FROM interactions WHERE user_id = $1 AND post_id = $2`

	var rec zalacontent.InteractionRecord
	err := r.db.QueryRow(ctx, query, userID, postID).Scan(
		&rec.UserID, &rec.PostID, &rec.Liked, &rec.Disliked, &rec.Viewed,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, r.handlePostgresError("get interaction", err)
	}
	return &rec, nil
}

func (r *Repository) SaveInteraction(ctx context.Context, rec *zalacontent.InteractionRecord) error {
	query := `
		INSERT INTO interactions (user_id, post_id, liked, disliked, viewed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, post_id) DO UPDATE SET
			liked = EXCLUDED.liked, disliked = EXCLUDED.disliked,
			viewed = EXCLUDED.viewed, updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		rec.UserID, rec.PostID, rec.Liked, rec.Disliked, rec.Viewed,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("save interaction", err)
	}
	return nil
}

func (r *Repository) DeleteInteractionsByPost(ctx context.Context, postID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM interactions WHERE post_id = $1`, postID)
	if err != nil {
		return r.handlePostgresError("delete interactions", err)
	}
	return nil
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS content (
		id UUID PRIMARY KEY,
		creator_id UUID NOT NULL,
		creator_name VARCHAR(255),
		creator_profile_url TEXT,
		title VARCHAR(255) NOT NULL,
		focus TEXT,
		description TEXT,
		video_ref TEXT NOT NULL,
		thumbnail_ref TEXT NOT NULL,
		tags TEXT[],
		accessibility TEXT[],
		org_id VARCHAR(255),
		in_library BOOLEAN NOT NULL DEFAULT false,
		public_discovery BOOLEAN NOT NULL DEFAULT false,
		state VARCHAR(50) NOT NULL DEFAULT 'draft',
		scheduled_for TIMESTAMPTZ,
		publish_history TIMESTAMPTZ[],
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY,
		content_id UUID NOT NULL REFERENCES content(id) ON DELETE CASCADE,
		creator_id UUID NOT NULL,
		creator_name VARCHAR(255),
		title VARCHAR(255) NOT NULL,
		focus TEXT,
		description TEXT,
		video_ref TEXT NOT NULL,
		thumbnail_ref TEXT NOT NULL,
		tags TEXT[],
		accessibility TEXT[],
		state VARCHAR(50) NOT NULL DEFAULT 'scheduled',
		scheduled_for TIMESTAMPTZ,
		posted_at TIMESTAMPTZ,
		likes BIGINT NOT NULL DEFAULT 0,
		dislikes BIGINT NOT NULL DEFAULT 0,
		views BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_due
		ON posts (scheduled_for) WHERE state = 'scheduled'`,
	`CREATE TABLE IF NOT EXISTS zala_library (
		id UUID PRIMARY KEY,
		content_id UUID NOT NULL UNIQUE REFERENCES content(id) ON DELETE CASCADE,
		creator_id UUID NOT NULL,
		title VARCHAR(255) NOT NULL,
		focus TEXT,
		description TEXT,
		thumbnail_ref TEXT,
		tags TEXT[],
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS zala_public (
		id UUID PRIMARY KEY,
		content_id UUID NOT NULL REFERENCES content(id) ON DELETE CASCADE,
		post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		creator_id UUID NOT NULL,
		creator_name VARCHAR(255),
		title VARCHAR(255) NOT NULL,
		focus TEXT,
		description TEXT,
		video_ref TEXT NOT NULL,
		thumbnail_ref TEXT NOT NULL,
		tags TEXT[],
		posted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS interactions (
		user_id VARCHAR(255) NOT NULL,
		post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		liked BOOLEAN NOT NULL DEFAULT false,
		disliked BOOLEAN NOT NULL DEFAULT false,
		viewed BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, post_id)
	)`,
}

// EnsureSchema creates the tables the repository expects if they do not
// already exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

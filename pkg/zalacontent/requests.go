package zalacontent

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// CreateContentRequest contains parameters for creating new content.
// Title and CreatorID are required, as are both media references. If
// ScheduledFor is set the item transitions straight to scheduled and an
// initial post snapshot is created.
type CreateContentRequest struct {
	CreatorID         uuid.UUID
	CreatorName       string
	CreatorProfileURL string
	Title             string
	Focus             string
	Description       string
	VideoRef          string
	ThumbnailRef      string
	Tags              []string
	Accessibility     []string
	OrgID             string
	InLibrary         bool
	PublicDiscovery   bool
	ScheduledFor      *time.Time
}

// EditContentRequest contains parameters for editing content in place.
// Nil pointer fields are left unchanged. New media refs replace the old
// ones; the old object is released from storage only after the new
// reference is durably recorded.
type EditContentRequest struct {
	ID              uuid.UUID
	Title           *string
	Focus           *string
	Description     *string
	Tags            []string
	Accessibility   []string
	InLibrary       *bool
	PublicDiscovery *bool
	VideoRef        *string
	ThumbnailRef    *string
}

package zalacontent

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// canSchedule checks whether an item may transition into the scheduled state
// at the given time. The schedule time must be strictly in the future.
func canSchedule(state ContentState, at, now time.Time) (bool, error) {
	if !at.After(now) {
		return false, fmt.Errorf("%w: %s is not after %s", ErrInvalidSchedule, at.Format(time.RFC3339), now.Format(time.RFC3339))
	}
	switch state {
	case ContentStateDraft, ContentStateScheduled:
		return true, nil
	case ContentStatePublished:
		// Re-scheduling a published item starts a fresh publish cycle.
		return true, nil
	default:
		return false, fmt.Errorf("%w: unknown state %s", ErrInvalidContentState, state)
	}
}

// canUnschedule checks whether an item may revert to draft. Only scheduled
// items with a pending post can be unscheduled.
func canUnschedule(state ContentState) (bool, error) {
	switch state {
	case ContentStateScheduled:
		return true, nil
	case ContentStateDraft:
		return false, fmt.Errorf("%w: content is a draft (state: %s)", ErrNotScheduled, state)
	case ContentStatePublished:
		return false, fmt.Errorf("%w: content is already published (state: %s)", ErrNotScheduled, state)
	default:
		return false, fmt.Errorf("%w: unknown state %s", ErrInvalidContentState, state)
	}
}

// canPublish checks whether a post snapshot can be promoted to live. The
// check-and-set is done inside the same transaction that read the post, so
// a post seen as scheduled here cannot be promoted twice.
func canPublish(state PostState) (bool, error) {
	switch state {
	case PostStateScheduled:
		return true, nil
	case PostStateLive:
		return false, fmt.Errorf("%w (state: %s)", ErrAlreadyPublished, state)
	default:
		return false, fmt.Errorf("%w: unknown state %s", ErrInvalidPostState, state)
	}
}

// validateCreate checks the required fields of a create request.
func validateCreate(req CreateContentRequest) error {
	if req.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if req.CreatorID == uuid.Nil {
		return fmt.Errorf("%w: creator id is required", ErrValidation)
	}
	if req.VideoRef == "" {
		return fmt.Errorf("%w: video reference is required", ErrValidation)
	}
	if req.ThumbnailRef == "" {
		return fmt.Errorf("%w: thumbnail reference is required", ErrValidation)
	}
	return nil
}

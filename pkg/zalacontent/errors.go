package zalacontent

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrContentNotFound indicates a content item was not found
	ErrContentNotFound = errors.New("content not found")

	// ErrPostNotFound indicates a published post was not found
	ErrPostNotFound = errors.New("post not found")

	// ErrValidation indicates missing or malformed input fields
	ErrValidation = errors.New("invalid content fields")

	// ErrInvalidSchedule indicates a missing or non-future schedule time
	ErrInvalidSchedule = errors.New("schedule time must be in the future")

	// ErrNotScheduled indicates unschedule was called on an item with no pending scheduled post
	ErrNotScheduled = errors.New("content has no pending scheduled post")

	// ErrInvalidContentState indicates an unknown content lifecycle state
	ErrInvalidContentState = errors.New("invalid content state")

	// ErrInvalidPostState indicates an unknown post sub-state
	ErrInvalidPostState = errors.New("invalid post state")

	// ErrAlreadyPublished indicates publish was attempted on a post that is already live
	ErrAlreadyPublished = errors.New("post already live")

	// ErrObjectNotFound indicates a storage object was not found
	ErrObjectNotFound = errors.New("object not found")

	// ErrURLNotSupported indicates the storage backend cannot mint URLs
	ErrURLNotSupported = errors.New("url generation not supported")
)

// errorsIsAny reports whether err matches any of the given targets.
func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ContentError represents an error related to content lifecycle operations
type ContentError struct {
	ContentID uuid.UUID
	Op        string
	Err       error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("content operation %s failed for content %s: %v", e.Op, e.ContentID, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// TransactionError represents a store-level failure inside a multi-row
// mutation. The enclosing transaction has been rolled back.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed during %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// StorageError represents an error from the object store
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

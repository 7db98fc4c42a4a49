package entity

import (
	"errors"
	"fmt"
)

// Domain errors for posts and publications
var (
	// Validation errors
	ErrEmptyUserID         = errors.New("user ID is required")
	ErrEmptyTitle          = errors.New("post title is required")
	ErrContentTooLong      = errors.New("content exceeds maximum length of 2200 characters")
	ErrScheduledTimeInPast = errors.New("scheduled time must be in the future")
	ErrMissingSchedule     = errors.New("scheduled post requires a scheduled time")
	ErrNoPlatforms         = errors.New("at least one target platform is required")
	ErrInvalidPlatform     = errors.New("invalid platform")
	ErrDuplicatePlatform   = errors.New("duplicate target platform")
	ErrInvalidStatus       = errors.New("invalid post status")

	// Business logic errors
	ErrPostNotEditable = errors.New("post cannot be edited in current status")

	// Store error taxonomy. DAO implementations wrap their failures into
	// exactly one of these so callers can match with errors.Is.
	ErrNotFound         = errors.New("entity not found")
	ErrConflict         = errors.New("entity already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// TransitionError is returned for any status transition not in the
// lifecycle table. Triggered by an internal code path it indicates a
// logic error and must not be retried.
type TransitionError struct {
	From PostStatus
	To   PostStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// IsInvalidTransition reports whether err is a lifecycle transition violation
func IsInvalidTransition(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

package dao

import (
	"context"
	"time"

	"github.com/vadim/artflow/internal/domain/post/entity"
)

// PostFilter contains filters for listing posts
type PostFilter struct {
	UserID string
	Status *entity.PostStatus
}

// ListOptions contains pagination and sorting options
type ListOptions struct {
	Limit  int
	Offset int
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	// CreateWithPublications inserts a post together with one publication per
	// target platform in a single transaction. Either all rows become visible
	// or none. A duplicate (post, platform) pair surfaces entity.ErrConflict.
	CreateWithPublications(ctx context.Context, post *entity.Post, pubs []entity.Publication) error

	// GetByID retrieves a post by its ID, without publications
	GetByID(ctx context.Context, id string) (*entity.Post, error)

	// Update updates mutable post fields (title, content, media, hashtags)
	Update(ctx context.Context, post *entity.Post) error

	// Delete removes a post; its publications and attempts go with it
	Delete(ctx context.Context, id string) error

	// List retrieves posts with optional filtering and pagination,
	// newest first
	List(ctx context.Context, filter PostFilter, opts ListOptions) ([]entity.Post, error)

	// Count returns the total number of posts matching the filter
	Count(ctx context.Context, filter PostFilter) (int64, error)

	// Schedule transitions a post into scheduled and creates its pending
	// publications, atomically, guarded by the post's current status.
	// Returns false without mutating anything if the guard does not hold.
	Schedule(ctx context.Context, postID string, from entity.PostStatus, scheduledFor time.Time, pubs []entity.Publication) (bool, error)

	// Unschedule transitions scheduled back to draft, clearing the scheduled
	// time and deleting pending publications. Returns false if the post was
	// not in scheduled (the claim already won the cancellation race).
	Unschedule(ctx context.Context, postID string) (bool, error)

	// DueForDispatch returns posts with status=scheduled and
	// scheduled_for <= now, ordered by scheduled_for then id ascending,
	// capped at limit. Pure read, performs no mutation.
	DueForDispatch(ctx context.Context, now time.Time, limit int) ([]entity.Post, error)

	// WithPendingRetries returns publishing posts that still need dispatch
	// work: a pending publication whose backoff window elapsed or that never
	// got an attempt (next_attempt_at unset), or a publication left in
	// publishing with no write since staleBefore
	WithPendingRetries(ctx context.Context, now, staleBefore time.Time, limit int) ([]entity.Post, error)

	// ClaimForDispatch atomically transitions scheduled -> publishing.
	// Exactly one concurrent caller wins; the losing claim observes false
	// with no error.
	ClaimForDispatch(ctx context.Context, id string) (bool, error)

	// FinishDispatch transitions publishing -> published/failed, guarded by
	// the current publishing status
	FinishDispatch(ctx context.Context, id string, status entity.PostStatus, publishedAt *time.Time) (bool, error)

	// GetStatistics returns post counts by status for a user
	GetStatistics(ctx context.Context, userID string) (*entity.PostStatistics, error)
}

// PublicationRepository defines the interface for publication data access
type PublicationRepository interface {
	// GetByPostID retrieves all publications for a post, oldest first
	GetByPostID(ctx context.Context, postID string) ([]entity.Publication, error)

	// ClaimAttempt atomically transitions pending -> publishing for one
	// publication, guarded by next_attempt_at <= now (or unset). Returns
	// false when another worker holds the attempt or the backoff window
	// has not elapsed.
	ClaimAttempt(ctx context.Context, id string, now time.Time) (bool, error)

	// ReclaimAttempt takes over a publication left in publishing with no
	// write since staleBefore. The conditional update renews updated_at,
	// so exactly one concurrent reclaimer wins.
	ReclaimAttempt(ctx context.Context, id string, staleBefore time.Time) (bool, error)

	// MarkPublished records a successful publish with the external platform id
	MarkPublished(ctx context.Context, id string, externalID string, publishedAt time.Time) error

	// MarkRetrying returns a publication to pending after a retryable
	// failure, recording the attempt count, error detail and backoff window
	MarkRetrying(ctx context.Context, id string, attempts int, errMsg string, nextAttemptAt time.Time) error

	// MarkFailed records a terminal per-platform failure
	MarkFailed(ctx context.Context, id string, attempts int, errMsg string) error
}

// AttemptRepository records the dispatch audit trail
type AttemptRepository interface {
	// Append inserts one audit record; called for every attempt regardless
	// of outcome
	Append(ctx context.Context, attempt *entity.DispatchAttempt) error

	// ListByPublicationID retrieves the audit trail for a publication,
	// oldest first
	ListByPublicationID(ctx context.Context, publicationID string) ([]entity.DispatchAttempt, error)
}

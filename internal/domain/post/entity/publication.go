package entity

import "time"

// PublicationStatus represents the per-platform status of a publication
type PublicationStatus string

const (
	PublicationStatusPending    PublicationStatus = "pending"
	PublicationStatusPublishing PublicationStatus = "publishing"
	PublicationStatusPublished  PublicationStatus = "published"
	PublicationStatusFailed     PublicationStatus = "failed"
)

// Publication represents one platform-specific publish attempt/result for a post.
// Exactly one publication exists per (post, platform) pair; the pair never
// changes after creation.
type Publication struct {
	ID            string            `json:"id"`
	PostID        string            `json:"post_id"`
	Platform      Platform          `json:"platform"`
	Status        PublicationStatus `json:"status"`
	ExternalID    string            `json:"external_id,omitempty"` // platform post id, set only on success
	ErrorMessage  string            `json:"error_message,omitempty"`
	Attempts      int               `json:"attempts"`
	NextAttemptAt *time.Time        `json:"next_attempt_at,omitempty"`
	PublishedAt   *time.Time        `json:"published_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// IsResolved returns true once the publication has reached a final status
func (p *Publication) IsResolved() bool {
	return p.Status == PublicationStatusPublished || p.Status == PublicationStatusFailed
}

// AttemptOutcome describes how a single publish attempt ended
type AttemptOutcome string

const (
	AttemptOutcomePublished AttemptOutcome = "published"
	AttemptOutcomeRetrying  AttemptOutcome = "retrying"
	AttemptOutcomeFailed    AttemptOutcome = "failed"
)

// DispatchAttempt is an audit record appended for every publish attempt,
// successful or not
type DispatchAttempt struct {
	ID            string         `json:"id"`
	PublicationID string         `json:"publication_id"`
	Attempt       int            `json:"attempt"`
	Outcome       AttemptOutcome `json:"outcome"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ResolvePostStatus computes the terminal post status from a set of fully
// resolved publications: published only when every platform published,
// failed as soon as any platform failed. Partial success is never hidden;
// the per-platform detail stays on the publication rows.
// Returns false while any publication is still pending or publishing.
func ResolvePostStatus(pubs []Publication) (PostStatus, bool) {
	if len(pubs) == 0 {
		return "", false
	}
	allPublished := true
	for _, pub := range pubs {
		if !pub.IsResolved() {
			return "", false
		}
		if pub.Status != PublicationStatusPublished {
			allPublished = false
		}
	}
	if allPublished {
		return PostStatusPublished, true
	}
	return PostStatusFailed, true
}

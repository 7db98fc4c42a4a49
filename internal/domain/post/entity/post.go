package entity

import (
	"time"
)

// Platform represents a social platform a post can be published to
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformPinterest Platform = "pinterest"
	PlatformTiktok    Platform = "tiktok"
	PlatformTwitter   Platform = "twitter"
)

// IsValidPlatform checks if a platform is one of the supported set
func IsValidPlatform(p Platform) bool {
	switch p {
	case PlatformInstagram, PlatformPinterest, PlatformTiktok, PlatformTwitter:
		return true
	}
	return false
}

// ParsePlatform parses a string into a Platform
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	if !IsValidPlatform(p) {
		return "", ErrInvalidPlatform
	}
	return p, nil
}

// PostStatus represents the aggregate lifecycle status of a post
type PostStatus string

const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusScheduled  PostStatus = "scheduled"
	PostStatusPublishing PostStatus = "publishing"
	PostStatusPublished  PostStatus = "published"
	PostStatusFailed     PostStatus = "failed"
)

// postTransitions is the closed set of legal status transitions.
// Every status change in the system goes through CanTransition; a mutation
// and its transition are always committed together.
var postTransitions = map[PostStatus][]PostStatus{
	PostStatusDraft:      {PostStatusScheduled},
	PostStatusScheduled:  {PostStatusPublishing, PostStatusDraft},
	PostStatusPublishing: {PostStatusPublished, PostStatusFailed},
	PostStatusPublished:  {},
	PostStatusFailed:     {},
}

// IsValid checks if the status is one of the known lifecycle states
func (s PostStatus) IsValid() bool {
	_, ok := postTransitions[s]
	return ok
}

// CanTransition reports whether moving from one post status to another is legal
func CanTransition(from, to PostStatus) bool {
	for _, t := range postTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Post represents a unit of content a user intends to publish,
// independent of any target platform
type Post struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Media        []string   `json:"media,omitempty"` // ordered storage keys or absolute URLs
	Hashtags     []string   `json:"hashtags,omitempty"`
	Status       PostStatus `json:"status"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Publications are loaded on demand, one per target platform
	Publications []Publication `json:"publications,omitempty"`
}

// MaxContentLength is the conservative cross-platform caption limit
const MaxContentLength = 2200

// IsEditable returns true if the post can still be modified by its owner
func (p *Post) IsEditable() bool {
	return p.Status == PostStatusDraft || p.Status == PostStatusScheduled
}

// IsTerminal returns true if the post has reached a final status
func (p *Post) IsTerminal() bool {
	return p.Status == PostStatusPublished || p.Status == PostStatusFailed
}

// Validate validates post fields
func (p *Post) Validate() error {
	if p.UserID == "" {
		return ErrEmptyUserID
	}
	if p.Title == "" {
		return ErrEmptyTitle
	}
	if len(p.Content) > MaxContentLength {
		return ErrContentTooLong
	}
	if p.Status == PostStatusScheduled && p.ScheduledFor == nil {
		return ErrMissingSchedule
	}
	return nil
}

// ValidateSchedule checks that a post can be scheduled for the given time
// with the given target platforms. The scheduled time must be in the future
// and at least one platform must be requested.
func (p *Post) ValidateSchedule(scheduledFor time.Time, platforms []Platform, now time.Time) error {
	if !CanTransition(p.Status, PostStatusScheduled) {
		return &TransitionError{From: p.Status, To: PostStatusScheduled}
	}
	if !scheduledFor.After(now) {
		return ErrScheduledTimeInPast
	}
	if len(platforms) == 0 {
		return ErrNoPlatforms
	}
	seen := make(map[Platform]bool, len(platforms))
	for _, pl := range platforms {
		if !IsValidPlatform(pl) {
			return ErrInvalidPlatform
		}
		if seen[pl] {
			return ErrDuplicatePlatform
		}
		seen[pl] = true
	}
	return nil
}

package entity

import (
	"errors"
	"time"

	postentity "github.com/vadim/artflow/internal/domain/post/entity"
)

// Template represents a reusable content template a user drafts posts from
type Template struct {
	ID         string                `json:"id"`
	UserID     string                `json:"user_id"`
	Name       string                `json:"name"`
	Content    string                `json:"content"`
	Hashtags   []string              `json:"hashtags,omitempty"`
	Platforms  []postentity.Platform `json:"platforms,omitempty"`
	Category   string                `json:"category,omitempty"`
	UsageCount int                   `json:"usage_count"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// HashtagGroup represents a named set of hashtags for quick insertion
type HashtagGroup struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Hashtags  []string  `json:"hashtags"`
	Category  string    `json:"category,omitempty"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Domain errors for the content library
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrGroupNotFound    = errors.New("hashtag group not found")
	ErrEmptyName        = errors.New("name cannot be empty")
	ErrEmptyContent     = errors.New("template content cannot be empty")
	ErrNameTooLong      = errors.New("name exceeds maximum length")
	ErrContentTooLong   = errors.New("template content exceeds maximum length")
	ErrNoHashtags       = errors.New("hashtag group requires at least one hashtag")
)

// MaxNameLength is the maximum length of a template or group name
const MaxNameLength = 255

// MaxContentLength matches the cross-platform caption limit on posts
const MaxContentLength = 2200

// Validate validates template fields
func (t *Template) Validate() error {
	if t.Name == "" {
		return ErrEmptyName
	}
	if len(t.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if t.Content == "" {
		return ErrEmptyContent
	}
	if len(t.Content) > MaxContentLength {
		return ErrContentTooLong
	}
	for _, p := range t.Platforms {
		if !postentity.IsValidPlatform(p) {
			return postentity.ErrInvalidPlatform
		}
	}
	return nil
}

// Validate validates hashtag group fields
func (g *HashtagGroup) Validate() error {
	if g.Name == "" {
		return ErrEmptyName
	}
	if len(g.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(g.Hashtags) == 0 {
		return ErrNoHashtags
	}
	return nil
}

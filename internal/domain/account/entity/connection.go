package entity

import (
	"errors"
	"time"

	postentity "github.com/vadim/artflow/internal/domain/post/entity"
)

// Domain errors for platform connections
var (
	ErrConnectionNotFound = errors.New("platform connection not found")
	ErrConnectionInactive = errors.New("platform connection is inactive")
)

// Connection represents a user's connected social platform account.
// The dispatch coordinator reads it for publish credentials; the dashboard
// lists it on the platform-connection screen.
type Connection struct {
	ID             string              `json:"id"`
	UserID         string              `json:"user_id"`
	Platform       postentity.Platform `json:"platform"`
	ExternalUserID string              `json:"external_user_id"`
	DisplayName    string              `json:"display_name,omitempty"`
	AccessToken    string              `json:"-"` // never serialized outward
	IsActive       bool                `json:"is_active"`
	ConnectedAt    time.Time           `json:"connected_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

package entity

import (
	"time"

	postentity "github.com/vadim/artflow/internal/domain/post/entity"
)

// Rollup is one daily engagement aggregate per (user, date, platform).
// Rollups are derived data, rebuildable from publication outcomes and raw
// samples; they are never the source of truth.
type Rollup struct {
	UserID          string              `json:"user_id"`
	Date            time.Time           `json:"date"` // midnight UTC
	Platform        postentity.Platform `json:"platform"`
	PostsPublished  int                 `json:"posts_published"`
	Likes           int64               `json:"likes"`
	Comments        int64               `json:"comments"`
	Shares          int64               `json:"shares"`
	Views           int64               `json:"views"`
	FollowersGained int                 `json:"followers_gained"`
	FollowersLost   int                 `json:"followers_lost"`
	EngagementRate  float64             `json:"engagement_rate"` // percentage, [0,100]
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ComputeEngagementRate derives the engagement percentage from raw counters.
// Views of zero never divide; the result is clamped to [0,100] and is
// recomputed on every rollup, never mutated independently.
func ComputeEngagementRate(likes, comments, shares, views int64) float64 {
	denom := views
	if denom < 1 {
		denom = 1
	}

	rate := float64(likes+comments+shares) / float64(denom) * 100

	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}

// DaySample is the per-(user, platform) sum of raw engagement samples for
// one day, produced by the out-of-process collector
type DaySample struct {
	UserID          string
	Platform        postentity.Platform
	Likes           int64
	Comments        int64
	Shares          int64
	Views           int64
	FollowersGained int
	FollowersLost   int
}

// PublishedCount is the number of publications that reached published for
// one (user, platform) during one day
type PublishedCount struct {
	UserID   string
	Platform postentity.Platform
	Count    int
}

package dao

import (
	"context"
	"time"

	"github.com/vadim/artflow/internal/domain/analytics/entity"
)

// SampleSource reads what the engagement collector persisted for one day.
// The collector itself runs out of process; only its rows are consumed here.
type SampleSource interface {
	// SumForDay returns per-(user, platform) sums of the raw samples
	// recorded within [dayStart, dayStart+24h)
	SumForDay(ctx context.Context, dayStart time.Time) ([]entity.DaySample, error)

	// PublishedCounts returns per-(user, platform) counts of publications
	// that reached published within the same window
	PublishedCounts(ctx context.Context, dayStart time.Time) ([]entity.PublishedCount, error)
}

// RollupRepository defines the interface for rollup data access
type RollupRepository interface {
	// Upsert writes one rollup row keyed by (user, date, platform).
	// Re-running for the same key replaces the counters; it never
	// accumulates on top of a previous run.
	Upsert(ctx context.Context, rollup *entity.Rollup) error

	// ListByUser retrieves a user's rollups from a start date onward,
	// oldest first
	ListByUser(ctx context.Context, userID string, since time.Time) ([]entity.Rollup, error)
}

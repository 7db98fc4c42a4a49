package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadim/artflow/internal/domain/analytics/dao"
	"github.com/vadim/artflow/internal/domain/analytics/entity"
	postentity "github.com/vadim/artflow/internal/domain/post/entity"
)

// Service aggregates raw engagement samples into daily rollups
type Service struct {
	samples dao.SampleSource
	rollups dao.RollupRepository
	logger  *slog.Logger
}

// New creates a new analytics service
func New(samples dao.SampleSource, rollups dao.RollupRepository, logger *slog.Logger) *Service {
	return &Service{
		samples: samples,
		rollups: rollups,
		logger:  logger,
	}
}

type rollupKey struct {
	userID   string
	platform postentity.Platform
}

// AggregateDay rolls one UTC day's samples and publication outcomes into
// rollup rows, one per (user, date, platform). Re-running for the same day
// with unchanged samples stores the same rows again (replace upsert), so
// the aggregation is idempotent.
func (s *Service) AggregateDay(ctx context.Context, day time.Time) (int, error) {
	dayStart := day.UTC().Truncate(24 * time.Hour)

	samples, err := s.samples.SumForDay(ctx, dayStart)
	if err != nil {
		return 0, fmt.Errorf("summing samples: %w", err)
	}

	counts, err := s.samples.PublishedCounts(ctx, dayStart)
	if err != nil {
		return 0, fmt.Errorf("counting published: %w", err)
	}

	merged := make(map[rollupKey]*entity.Rollup)
	now := time.Now()

	for _, sm := range samples {
		key := rollupKey{sm.UserID, sm.Platform}
		merged[key] = &entity.Rollup{
			UserID:          sm.UserID,
			Date:            dayStart,
			Platform:        sm.Platform,
			Likes:           sm.Likes,
			Comments:        sm.Comments,
			Shares:          sm.Shares,
			Views:           sm.Views,
			FollowersGained: sm.FollowersGained,
			FollowersLost:   sm.FollowersLost,
			UpdatedAt:       now,
		}
	}

	for _, c := range counts {
		key := rollupKey{c.UserID, c.Platform}
		ru, ok := merged[key]
		if !ok {
			ru = &entity.Rollup{
				UserID:    c.UserID,
				Date:      dayStart,
				Platform:  c.Platform,
				UpdatedAt: now,
			}
			merged[key] = ru
		}
		ru.PostsPublished = c.Count
	}

	for _, ru := range merged {
		ru.EngagementRate = entity.ComputeEngagementRate(ru.Likes, ru.Comments, ru.Shares, ru.Views)
		if err := s.rollups.Upsert(ctx, ru); err != nil {
			return 0, fmt.Errorf("upserting rollup for %s/%s: %w", ru.UserID, ru.Platform, err)
		}
	}

	return len(merged), nil
}

// AggregatePreviousDay is the cron entry point: it closes out yesterday
func (s *Service) AggregatePreviousDay() {
	day := time.Now().UTC().AddDate(0, 0, -1)

	n, err := s.AggregateDay(context.Background(), day)
	if err != nil {
		s.logger.Error("analytics aggregation failed", "day", day.Format("2006-01-02"), "error", err)
		return
	}

	s.logger.Info("analytics aggregation finished", "day", day.Format("2006-01-02"), "rollups", n)
}

// GetUserAnalytics retrieves a user's rollups for the last N days
func (s *Service) GetUserAnalytics(ctx context.Context, userID string, days int) ([]entity.Rollup, error) {
	if days <= 0 {
		days = 30
	}

	since := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -days)
	return s.rollups.ListByUser(ctx, userID, since)
}

package dao

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/artflow/internal/domain/analytics/entity"
)

// SamplePostgres implements SampleSource over the engagement_samples table
// the collector writes into
type SamplePostgres struct {
	pool *pgxpool.Pool
}

// NewSamplePostgres creates a new PostgreSQL sample source
func NewSamplePostgres(pool *pgxpool.Pool) *SamplePostgres {
	return &SamplePostgres{pool: pool}
}

// SumForDay sums the raw samples recorded within one UTC day
func (r *SamplePostgres) SumForDay(ctx context.Context, dayStart time.Time) ([]entity.DaySample, error) {
	query := `
		SELECT user_id, platform,
		       COALESCE(SUM(likes), 0),
		       COALESCE(SUM(comments), 0),
		       COALESCE(SUM(shares), 0),
		       COALESCE(SUM(views), 0),
		       COALESCE(SUM(followers_gained), 0),
		       COALESCE(SUM(followers_lost), 0)
		FROM engagement_samples
		WHERE sampled_at >= $1 AND sampled_at < $2
		GROUP BY user_id, platform
	`

	rows, err := r.pool.Query(ctx, query, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, wrapStoreErr("querying engagement samples", err)
	}
	defer rows.Close()

	var samples []entity.DaySample
	for rows.Next() {
		var s entity.DaySample
		err := rows.Scan(
			&s.UserID,
			&s.Platform,
			&s.Likes,
			&s.Comments,
			&s.Shares,
			&s.Views,
			&s.FollowersGained,
			&s.FollowersLost,
		)
		if err != nil {
			return nil, wrapStoreErr("scanning sample row", err)
		}
		samples = append(samples, s)
	}

	return samples, nil
}

// PublishedCounts counts publications that reached published within one UTC day
func (r *SamplePostgres) PublishedCounts(ctx context.Context, dayStart time.Time) ([]entity.PublishedCount, error) {
	query := `
		SELECT p.user_id, pub.platform, COUNT(*)
		FROM publications pub
		JOIN posts p ON p.id = pub.post_id
		WHERE pub.status = 'published'
		  AND pub.published_at >= $1 AND pub.published_at < $2
		GROUP BY p.user_id, pub.platform
	`

	rows, err := r.pool.Query(ctx, query, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, wrapStoreErr("querying published counts", err)
	}
	defer rows.Close()

	var counts []entity.PublishedCount
	for rows.Next() {
		var c entity.PublishedCount
		if err := rows.Scan(&c.UserID, &c.Platform, &c.Count); err != nil {
			return nil, wrapStoreErr("scanning published count row", err)
		}
		counts = append(counts, c)
	}

	return counts, nil
}

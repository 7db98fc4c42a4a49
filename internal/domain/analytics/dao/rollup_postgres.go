package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/artflow/internal/domain/analytics/entity"
	postentity "github.com/vadim/artflow/internal/domain/post/entity"
)

// wrapStoreErr folds store failures into the shared taxonomy so callers can
// tell a retryable outage from a conflict, same as the post repositories
func wrapStoreErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", op, postentity.ErrConflict)
	}
	return fmt.Errorf("%s: %w (%v)", op, postentity.ErrStoreUnavailable, err)
}

// RollupPostgres implements RollupRepository for PostgreSQL
type RollupPostgres struct {
	pool *pgxpool.Pool
}

// NewRollupPostgres creates a new PostgreSQL rollup repository
func NewRollupPostgres(pool *pgxpool.Pool) *RollupPostgres {
	return &RollupPostgres{pool: pool}
}

// Upsert writes one rollup row. The unique (user_id, date, platform) key
// plus DO UPDATE gives replace semantics: re-running a day's aggregation
// yields the same stored row, not accumulation.
func (r *RollupPostgres) Upsert(ctx context.Context, rollup *entity.Rollup) error {
	query := `
		INSERT INTO analytics_rollups
			(user_id, date, platform, posts_published, likes, comments, shares, views,
			 followers_gained, followers_lost, engagement_rate, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id, date, platform) DO UPDATE SET
			posts_published = EXCLUDED.posts_published,
			likes = EXCLUDED.likes,
			comments = EXCLUDED.comments,
			shares = EXCLUDED.shares,
			views = EXCLUDED.views,
			followers_gained = EXCLUDED.followers_gained,
			followers_lost = EXCLUDED.followers_lost,
			engagement_rate = EXCLUDED.engagement_rate,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		rollup.UserID,
		rollup.Date,
		rollup.Platform,
		rollup.PostsPublished,
		rollup.Likes,
		rollup.Comments,
		rollup.Shares,
		rollup.Views,
		rollup.FollowersGained,
		rollup.FollowersLost,
		rollup.EngagementRate,
		rollup.UpdatedAt,
	)
	if err != nil {
		return wrapStoreErr("upserting rollup", err)
	}

	return nil
}

// ListByUser retrieves a user's rollups from a start date onward
func (r *RollupPostgres) ListByUser(ctx context.Context, userID string, since time.Time) ([]entity.Rollup, error) {
	query := `
		SELECT user_id, date, platform, posts_published, likes, comments, shares, views,
		       followers_gained, followers_lost, engagement_rate, updated_at
		FROM analytics_rollups
		WHERE user_id = $1 AND date >= $2
		ORDER BY date ASC, platform ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, wrapStoreErr("querying rollups", err)
	}
	defer rows.Close()

	var rollups []entity.Rollup
	for rows.Next() {
		var ru entity.Rollup
		err := rows.Scan(
			&ru.UserID,
			&ru.Date,
			&ru.Platform,
			&ru.PostsPublished,
			&ru.Likes,
			&ru.Comments,
			&ru.Shares,
			&ru.Views,
			&ru.FollowersGained,
			&ru.FollowersLost,
			&ru.EngagementRate,
			&ru.UpdatedAt,
		)
		if err != nil {
			return nil, wrapStoreErr("scanning rollup row", err)
		}
		rollups = append(rollups, ru)
	}

	return rollups, nil
}

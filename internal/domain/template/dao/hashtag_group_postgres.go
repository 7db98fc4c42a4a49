package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/artflow/internal/domain/template/entity"
)

// HashtagGroupRepository defines the interface for hashtag group data access
type HashtagGroupRepository interface {
	Create(ctx context.Context, group *entity.HashtagGroup) error
	Delete(ctx context.Context, id string) error
	ListByUserID(ctx context.Context, userID string) ([]entity.HashtagGroup, error)
}

// HashtagGroupPostgres implements HashtagGroupRepository for PostgreSQL
type HashtagGroupPostgres struct {
	pool *pgxpool.Pool
}

// NewHashtagGroupPostgres creates a new PostgreSQL hashtag group repository
func NewHashtagGroupPostgres(pool *pgxpool.Pool) *HashtagGroupPostgres {
	return &HashtagGroupPostgres{pool: pool}
}

// Create inserts a new hashtag group
func (r *HashtagGroupPostgres) Create(ctx context.Context, group *entity.HashtagGroup) error {
	query := `
		INSERT INTO hashtag_groups (id, user_id, name, hashtags, category, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`

	now := time.Now()
	_, err := r.pool.Exec(ctx, query,
		group.ID,
		group.UserID,
		group.Name,
		group.Hashtags,
		group.Category,
		group.IsDefault,
		now,
	)
	if err != nil {
		return fmt.Errorf("creating hashtag group: %w", err)
	}

	group.CreatedAt = now
	group.UpdatedAt = now
	return nil
}

// Delete removes a hashtag group
func (r *HashtagGroupPostgres) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM hashtag_groups WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting hashtag group: %w", err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrGroupNotFound
	}

	return nil
}

// ListByUserID retrieves all hashtag groups for a user, defaults first
func (r *HashtagGroupPostgres) ListByUserID(ctx context.Context, userID string) ([]entity.HashtagGroup, error) {
	query := `
		SELECT id, user_id, name, hashtags, category, is_default, created_at, updated_at
		FROM hashtag_groups
		WHERE user_id = $1
		ORDER BY is_default DESC, name ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying hashtag groups: %w", err)
	}
	defer rows.Close()

	var groups []entity.HashtagGroup
	for rows.Next() {
		var g entity.HashtagGroup
		err := rows.Scan(
			&g.ID,
			&g.UserID,
			&g.Name,
			&g.Hashtags,
			&g.Category,
			&g.IsDefault,
			&g.CreatedAt,
			&g.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning hashtag group row: %w", err)
		}
		groups = append(groups, g)
	}

	return groups, nil
}

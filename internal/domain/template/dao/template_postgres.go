package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/artflow/internal/domain/template/entity"
)

// TemplateRepository defines the interface for content template data access
type TemplateRepository interface {
	Create(ctx context.Context, tmpl *entity.Template) error
	GetByID(ctx context.Context, id string) (*entity.Template, error)
	Update(ctx context.Context, tmpl *entity.Template) error
	Delete(ctx context.Context, id string) error
	ListByUserID(ctx context.Context, userID string) ([]entity.Template, error)
	IncrementUsage(ctx context.Context, id string) error
}

// TemplatePostgres implements TemplateRepository for PostgreSQL
type TemplatePostgres struct {
	pool *pgxpool.Pool
}

// NewTemplatePostgres creates a new PostgreSQL template repository
func NewTemplatePostgres(pool *pgxpool.Pool) *TemplatePostgres {
	return &TemplatePostgres{pool: pool}
}

// Create inserts a new template
func (r *TemplatePostgres) Create(ctx context.Context, tmpl *entity.Template) error {
	query := `
		INSERT INTO content_templates (id, user_id, name, content, hashtags, platforms, category, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $8)
	`

	now := time.Now()
	_, err := r.pool.Exec(ctx, query,
		tmpl.ID,
		tmpl.UserID,
		tmpl.Name,
		tmpl.Content,
		tmpl.Hashtags,
		tmpl.Platforms,
		tmpl.Category,
		now,
	)
	if err != nil {
		return fmt.Errorf("creating template: %w", err)
	}

	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	return nil
}

// GetByID retrieves a template by ID
func (r *TemplatePostgres) GetByID(ctx context.Context, id string) (*entity.Template, error) {
	query := `
		SELECT id, user_id, name, content, hashtags, platforms, category, usage_count, created_at, updated_at
		FROM content_templates
		WHERE id = $1
	`

	var tmpl entity.Template
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tmpl.ID,
		&tmpl.UserID,
		&tmpl.Name,
		&tmpl.Content,
		&tmpl.Hashtags,
		&tmpl.Platforms,
		&tmpl.Category,
		&tmpl.UsageCount,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting template: %w", err)
	}

	return &tmpl, nil
}

// Update updates an existing template
func (r *TemplatePostgres) Update(ctx context.Context, tmpl *entity.Template) error {
	query := `
		UPDATE content_templates
		SET name = $2, content = $3, hashtags = $4, platforms = $5, category = $6, updated_at = $7
		WHERE id = $1
	`

	now := time.Now()
	result, err := r.pool.Exec(ctx, query,
		tmpl.ID,
		tmpl.Name,
		tmpl.Content,
		tmpl.Hashtags,
		tmpl.Platforms,
		tmpl.Category,
		now,
	)
	if err != nil {
		return fmt.Errorf("updating template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrTemplateNotFound
	}

	tmpl.UpdatedAt = now
	return nil
}

// Delete removes a template
func (r *TemplatePostgres) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM content_templates WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrTemplateNotFound
	}

	return nil
}

// ListByUserID retrieves all templates for a user, most used first
func (r *TemplatePostgres) ListByUserID(ctx context.Context, userID string) ([]entity.Template, error) {
	query := `
		SELECT id, user_id, name, content, hashtags, platforms, category, usage_count, created_at, updated_at
		FROM content_templates
		WHERE user_id = $1
		ORDER BY usage_count DESC, name ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var templates []entity.Template
	for rows.Next() {
		var tmpl entity.Template
		err := rows.Scan(
			&tmpl.ID,
			&tmpl.UserID,
			&tmpl.Name,
			&tmpl.Content,
			&tmpl.Hashtags,
			&tmpl.Platforms,
			&tmpl.Category,
			&tmpl.UsageCount,
			&tmpl.CreatedAt,
			&tmpl.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning template row: %w", err)
		}
		templates = append(templates, tmpl)
	}

	return templates, nil
}

// IncrementUsage bumps the usage counter when a post is drafted from a template
func (r *TemplatePostgres) IncrementUsage(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "UPDATE content_templates SET usage_count = usage_count + 1 WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("incrementing template usage: %w", err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrTemplateNotFound
	}

	return nil
}

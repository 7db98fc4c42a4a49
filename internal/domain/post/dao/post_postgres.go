package dao

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/artflow/internal/domain/post/entity"
)

// wrapStoreErr maps a database failure into the store error taxonomy.
// Unique violations become ErrConflict; everything else is transient from
// the caller's point of view and becomes ErrStoreUnavailable.
func wrapStoreErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", op, entity.ErrConflict)
	}
	return fmt.Errorf("%s: %w (%v)", op, entity.ErrStoreUnavailable, err)
}

func wrapNotFound(op string) error {
	return fmt.Errorf("%s: %w", op, entity.ErrNotFound)
}

const postColumns = `id, user_id, title, content, media, hashtags, status, scheduled_for, published_at, created_at, updated_at`

// PostPostgres implements PostRepository for PostgreSQL
type PostPostgres struct {
	pool *pgxpool.Pool
}

// NewPostPostgres creates a new PostgreSQL post repository
func NewPostPostgres(pool *pgxpool.Pool) *PostPostgres {
	return &PostPostgres{pool: pool}
}

// CreateWithPublications inserts a post and its publications atomically
func (r *PostPostgres) CreateWithPublications(ctx context.Context, post *entity.Post, pubs []entity.Publication) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrapStoreErr("beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO posts (id, user_id, title, content, media, hashtags, status, scheduled_for, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = tx.Exec(ctx, query,
		post.ID,
		post.UserID,
		post.Title,
		post.Content,
		post.Media,
		post.Hashtags,
		post.Status,
		post.ScheduledFor,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return wrapStoreErr("inserting post", err)
	}

	for i := range pubs {
		if err := insertPublication(ctx, tx, &pubs[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapStoreErr("committing post", err)
	}

	return nil
}

// GetByID retrieves a post by ID
func (r *PostPostgres) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreErr("getting post", err)
	}

	return post, nil
}

// Update updates mutable post fields
func (r *PostPostgres) Update(ctx context.Context, post *entity.Post) error {
	query := `
		UPDATE posts
		SET title = $2, content = $3, media = $4, hashtags = $5, updated_at = $6
		WHERE id = $1
	`

	now := time.Now()
	result, err := r.pool.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.Media,
		post.Hashtags,
		now,
	)
	if err != nil {
		return wrapStoreErr("updating post", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("updating post: %w", entity.ErrNotFound)
	}

	post.UpdatedAt = now
	return nil
}

// Delete removes a post. Publications and dispatch attempts cascade.
func (r *PostPostgres) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return wrapStoreErr("deleting post", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("deleting post: %w", entity.ErrNotFound)
	}
	return nil
}

// List retrieves posts with filtering, newest first
func (r *PostPostgres) List(ctx context.Context, filter PostFilter, opts ListOptions) ([]entity.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, filter.UserID)
		argNum++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *filter.Status)
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, opts.Limit)
		argNum++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, opts.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreErr("querying posts", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// Count returns the total count of posts matching the filter
func (r *PostPostgres) Count(ctx context.Context, filter PostFilter) (int64, error) {
	query := "SELECT COUNT(*) FROM posts WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, filter.UserID)
		argNum++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *filter.Status)
	}

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, wrapStoreErr("counting posts", err)
	}

	return count, nil
}

// Schedule transitions a post into scheduled and creates its pending
// publications in one transaction, guarded by the current status
func (r *PostPostgres) Schedule(ctx context.Context, postID string, from entity.PostStatus, scheduledFor time.Time, pubs []entity.Publication) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, wrapStoreErr("beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE posts
		SET status = $3, scheduled_for = $4, updated_at = $5
		WHERE id = $1 AND status = $2
	`

	result, err := tx.Exec(ctx, query, postID, from, entity.PostStatusScheduled, scheduledFor, time.Now())
	if err != nil {
		return false, wrapStoreErr("scheduling post", err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	for i := range pubs {
		if err := insertPublication(ctx, tx, &pubs[i]); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, wrapStoreErr("committing schedule", err)
	}

	return true, nil
}

// Unschedule transitions scheduled back to draft and removes the pending
// publications created at schedule time
func (r *PostPostgres) Unschedule(ctx context.Context, postID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, wrapStoreErr("beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE posts
		SET status = $2, scheduled_for = NULL, updated_at = $3
		WHERE id = $1 AND status = $4
	`

	result, err := tx.Exec(ctx, query, postID, entity.PostStatusDraft, time.Now(), entity.PostStatusScheduled)
	if err != nil {
		return false, wrapStoreErr("unscheduling post", err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, "DELETE FROM publications WHERE post_id = $1 AND status = $2", postID, entity.PublicationStatusPending); err != nil {
		return false, wrapStoreErr("deleting pending publications", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, wrapStoreErr("committing unschedule", err)
	}

	return true, nil
}

// DueForDispatch retrieves posts due for dispatch, deterministically ordered
func (r *PostPostgres) DueForDispatch(ctx context.Context, now time.Time, limit int) ([]entity.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE status = $1 AND scheduled_for <= $2
		ORDER BY scheduled_for ASC, id ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, entity.PostStatusScheduled, now, limit)
	if err != nil {
		return nil, wrapStoreErr("querying due posts", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// WithPendingRetries retrieves publishing posts that still need dispatch
// work: a pending publication whose backoff window elapsed (or that never
// got an attempt, next_attempt_at NULL), or a publication stuck in
// publishing past the attempt lease.
func (r *PostPostgres) WithPendingRetries(ctx context.Context, now, staleBefore time.Time, limit int) ([]entity.Post, error) {
	query := `
		SELECT DISTINCT ON (p.id) ` + prefixed(postColumns, "p.") + `
		FROM posts p
		JOIN publications pub ON pub.post_id = p.id
		WHERE p.status = $1
		  AND (
			(pub.status = $2 AND (pub.next_attempt_at IS NULL OR pub.next_attempt_at <= $3))
			OR (pub.status = $4 AND pub.updated_at <= $5)
		  )
		ORDER BY p.id ASC
		LIMIT $6
	`

	rows, err := r.pool.Query(ctx, query, entity.PostStatusPublishing, entity.PublicationStatusPending, now, entity.PublicationStatusPublishing, staleBefore, limit)
	if err != nil {
		return nil, wrapStoreErr("querying retryable posts", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// ClaimForDispatch performs the conditional scheduled -> publishing update.
// A losing concurrent claim affects zero rows and is a no-op, not an error.
func (r *PostPostgres) ClaimForDispatch(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE posts
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`

	result, err := r.pool.Exec(ctx, query, id, entity.PostStatusPublishing, time.Now(), entity.PostStatusScheduled)
	if err != nil {
		return false, wrapStoreErr("claiming post", err)
	}

	return result.RowsAffected() > 0, nil
}

// FinishDispatch commits the terminal post status, guarded by publishing
func (r *PostPostgres) FinishDispatch(ctx context.Context, id string, status entity.PostStatus, publishedAt *time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET status = $2, published_at = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`

	result, err := r.pool.Exec(ctx, query, id, status, publishedAt, time.Now(), entity.PostStatusPublishing)
	if err != nil {
		return false, wrapStoreErr("finishing dispatch", err)
	}

	return result.RowsAffected() > 0, nil
}

// GetStatistics returns post counts by status for a user
func (r *PostPostgres) GetStatistics(ctx context.Context, userID string) (*entity.PostStatistics, error) {
	query := `
		SELECT status, COUNT(*)
		FROM posts
		WHERE user_id = $1
		GROUP BY status
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapStoreErr("querying statistics", err)
	}
	defer rows.Close()

	var stats entity.PostStatistics
	for rows.Next() {
		var status entity.PostStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, wrapStoreErr("scanning statistics", err)
		}

		stats.TotalCount += count
		switch status {
		case entity.PostStatusDraft:
			stats.DraftCount = count
		case entity.PostStatusScheduled:
			stats.ScheduledCount = count
		case entity.PostStatusPublishing:
			// in-flight posts count toward scheduled on the dashboard
			stats.ScheduledCount += count
		case entity.PostStatusPublished:
			stats.PublishedCount = count
		case entity.PostStatusFailed:
			stats.FailedCount = count
		}
	}

	return &stats, nil
}

// scanPost scans a single post row
func scanPost(row pgx.Row) (*entity.Post, error) {
	var post entity.Post
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Content,
		&post.Media,
		&post.Hashtags,
		&post.Status,
		&post.ScheduledFor,
		&post.PublishedAt,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// scanPosts scans all rows from a posts query
func scanPosts(rows pgx.Rows) ([]entity.Post, error) {
	var posts []entity.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, wrapStoreErr("scanning post row", err)
		}
		posts = append(posts, *post)
	}
	return posts, nil
}

// prefixed qualifies a comma-separated column list with a table alias
func prefixed(columns, prefix string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = prefix + c
	}
	return strings.Join(cols, ", ")
}

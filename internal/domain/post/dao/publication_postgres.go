package dao

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/artflow/internal/domain/post/entity"
)

const publicationColumns = `id, post_id, platform, status, external_id, error_message, attempts, next_attempt_at, published_at, created_at, updated_at`

// PublicationPostgres implements PublicationRepository for PostgreSQL
type PublicationPostgres struct {
	pool *pgxpool.Pool
}

// NewPublicationPostgres creates a new PostgreSQL publication repository
func NewPublicationPostgres(pool *pgxpool.Pool) *PublicationPostgres {
	return &PublicationPostgres{pool: pool}
}

// insertPublication is shared with the post repository's transactional
// creates. The (post_id, platform) unique index makes a duplicate platform
// surface as ErrConflict.
func insertPublication(ctx context.Context, tx pgx.Tx, pub *entity.Publication) error {
	query := `
		INSERT INTO publications (id, post_id, platform, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.Exec(ctx, query,
		pub.ID,
		pub.PostID,
		pub.Platform,
		pub.Status,
		pub.Attempts,
		pub.CreatedAt,
		pub.UpdatedAt,
	)
	if err != nil {
		return wrapStoreErr("inserting publication", err)
	}

	return nil
}

// GetByPostID retrieves all publications for a post
func (r *PublicationPostgres) GetByPostID(ctx context.Context, postID string) ([]entity.Publication, error) {
	query := `
		SELECT ` + publicationColumns + `
		FROM publications
		WHERE post_id = $1
		ORDER BY created_at ASC, platform ASC
	`

	rows, err := r.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, wrapStoreErr("querying publications", err)
	}
	defer rows.Close()

	var pubs []entity.Publication
	for rows.Next() {
		var pub entity.Publication
		var externalID, errorMessage *string

		err := rows.Scan(
			&pub.ID,
			&pub.PostID,
			&pub.Platform,
			&pub.Status,
			&externalID,
			&errorMessage,
			&pub.Attempts,
			&pub.NextAttemptAt,
			&pub.PublishedAt,
			&pub.CreatedAt,
			&pub.UpdatedAt,
		)
		if err != nil {
			return nil, wrapStoreErr("scanning publication row", err)
		}

		if externalID != nil {
			pub.ExternalID = *externalID
		}
		if errorMessage != nil {
			pub.ErrorMessage = *errorMessage
		}

		pubs = append(pubs, pub)
	}

	return pubs, nil
}

// ClaimAttempt performs the conditional pending -> publishing update for one
// publication. The next_attempt_at guard keeps a retry inside its backoff
// window and stops two workers from attempting the same platform at once.
func (r *PublicationPostgres) ClaimAttempt(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
		UPDATE publications
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
		  AND (next_attempt_at IS NULL OR next_attempt_at <= $5)
	`

	result, err := r.pool.Exec(ctx, query, id, entity.PublicationStatusPublishing, time.Now(), entity.PublicationStatusPending, now)
	if err != nil {
		return false, wrapStoreErr("claiming publication attempt", err)
	}

	return result.RowsAffected() > 0, nil
}

// ReclaimAttempt takes over a publication left in publishing by a worker
// that died mid-attempt. The updated_at guard doubles as the attempt lease:
// only a row untouched since staleBefore can be reclaimed, and the update
// renews the lease so concurrent reclaims lose.
func (r *PublicationPostgres) ReclaimAttempt(ctx context.Context, id string, staleBefore time.Time) (bool, error) {
	query := `
		UPDATE publications
		SET updated_at = $2
		WHERE id = $1 AND status = $3 AND updated_at <= $4
	`

	result, err := r.pool.Exec(ctx, query, id, time.Now(), entity.PublicationStatusPublishing, staleBefore)
	if err != nil {
		return false, wrapStoreErr("reclaiming publication attempt", err)
	}

	return result.RowsAffected() > 0, nil
}

// MarkPublished records a successful publish with the external platform id
func (r *PublicationPostgres) MarkPublished(ctx context.Context, id string, externalID string, publishedAt time.Time) error {
	query := `
		UPDATE publications
		SET status = $2, external_id = $3, published_at = $4, error_message = NULL, updated_at = $5
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, entity.PublicationStatusPublished, externalID, publishedAt, time.Now())
	if err != nil {
		return wrapStoreErr("marking publication published", err)
	}
	if result.RowsAffected() == 0 {
		return wrapNotFound("marking publication published")
	}

	return nil
}

// MarkRetrying returns a publication to pending with its backoff window
func (r *PublicationPostgres) MarkRetrying(ctx context.Context, id string, attempts int, errMsg string, nextAttemptAt time.Time) error {
	query := `
		UPDATE publications
		SET status = $2, attempts = $3, error_message = $4, next_attempt_at = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, entity.PublicationStatusPending, attempts, errMsg, nextAttemptAt, time.Now())
	if err != nil {
		return wrapStoreErr("marking publication retrying", err)
	}
	if result.RowsAffected() == 0 {
		return wrapNotFound("marking publication retrying")
	}

	return nil
}

// MarkFailed records a terminal per-platform failure
func (r *PublicationPostgres) MarkFailed(ctx context.Context, id string, attempts int, errMsg string) error {
	query := `
		UPDATE publications
		SET status = $2, attempts = $3, error_message = $4, next_attempt_at = NULL, updated_at = $5
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, entity.PublicationStatusFailed, attempts, errMsg, time.Now())
	if err != nil {
		return wrapStoreErr("marking publication failed", err)
	}
	if result.RowsAffected() == 0 {
		return wrapNotFound("marking publication failed")
	}

	return nil
}

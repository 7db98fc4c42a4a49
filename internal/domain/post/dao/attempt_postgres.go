package dao

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/artflow/internal/domain/post/entity"
)

// AttemptPostgres implements AttemptRepository for PostgreSQL
type AttemptPostgres struct {
	pool *pgxpool.Pool
}

// NewAttemptPostgres creates a new PostgreSQL dispatch attempt repository
func NewAttemptPostgres(pool *pgxpool.Pool) *AttemptPostgres {
	return &AttemptPostgres{pool: pool}
}

// Append inserts one audit record
func (r *AttemptPostgres) Append(ctx context.Context, attempt *entity.DispatchAttempt) error {
	query := `
		INSERT INTO dispatch_attempts (id, publication_id, attempt, outcome, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var errMsg *string
	if attempt.ErrorMessage != "" {
		errMsg = &attempt.ErrorMessage
	}

	_, err := r.pool.Exec(ctx, query,
		attempt.ID,
		attempt.PublicationID,
		attempt.Attempt,
		attempt.Outcome,
		errMsg,
		attempt.CreatedAt,
	)
	if err != nil {
		return wrapStoreErr("inserting dispatch attempt", err)
	}

	return nil
}

// ListByPublicationID retrieves the audit trail for a publication
func (r *AttemptPostgres) ListByPublicationID(ctx context.Context, publicationID string) ([]entity.DispatchAttempt, error) {
	query := `
		SELECT id, publication_id, attempt, outcome, error_message, created_at
		FROM dispatch_attempts
		WHERE publication_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, publicationID)
	if err != nil {
		return nil, wrapStoreErr("querying dispatch attempts", err)
	}
	defer rows.Close()

	var attempts []entity.DispatchAttempt
	for rows.Next() {
		var a entity.DispatchAttempt
		var errMsg *string
		if err := rows.Scan(&a.ID, &a.PublicationID, &a.Attempt, &a.Outcome, &errMsg, &a.CreatedAt); err != nil {
			return nil, wrapStoreErr("scanning dispatch attempt row", err)
		}
		if errMsg != nil {
			a.ErrorMessage = *errMsg
		}
		attempts = append(attempts, a)
	}

	return attempts, nil
}

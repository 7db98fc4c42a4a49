package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/artflow/internal/domain/account/entity"
	postentity "github.com/vadim/artflow/internal/domain/post/entity"
)

// wrapStoreErr folds store failures into the shared taxonomy, same as the
// post repositories
func wrapStoreErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", op, postentity.ErrConflict)
	}
	return fmt.Errorf("%s: %w (%v)", op, postentity.ErrStoreUnavailable, err)
}

// ConnectionRepository defines the interface for platform connection data access
type ConnectionRepository interface {
	// GetActive retrieves the active connection for a user and platform
	GetActive(ctx context.Context, userID string, platform postentity.Platform) (*entity.Connection, error)

	// ListByUserID retrieves all connections for a user, oldest first
	ListByUserID(ctx context.Context, userID string) ([]entity.Connection, error)

	// Deactivate marks a connection inactive (disconnect)
	Deactivate(ctx context.Context, id string) error
}

// ConnectionPostgres implements ConnectionRepository for PostgreSQL
type ConnectionPostgres struct {
	pool *pgxpool.Pool
}

// NewConnectionPostgres creates a new PostgreSQL connection repository
func NewConnectionPostgres(pool *pgxpool.Pool) *ConnectionPostgres {
	return &ConnectionPostgres{pool: pool}
}

const connectionColumns = `id, user_id, platform, external_user_id, display_name, access_token, is_active, connected_at, updated_at`

// GetActive retrieves the active connection for a user and platform
func (r *ConnectionPostgres) GetActive(ctx context.Context, userID string, platform postentity.Platform) (*entity.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM platform_connections
		WHERE user_id = $1 AND platform = $2 AND is_active
		ORDER BY updated_at DESC
		LIMIT 1
	`

	conn, err := scanConnection(r.pool.QueryRow(ctx, query, userID, platform))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("connection for %s/%s: %w", userID, platform, entity.ErrConnectionNotFound)
	}
	if err != nil {
		return nil, wrapStoreErr("querying connection", err)
	}

	return conn, nil
}

// ListByUserID retrieves all connections for a user
func (r *ConnectionPostgres) ListByUserID(ctx context.Context, userID string) ([]entity.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM platform_connections
		WHERE user_id = $1
		ORDER BY connected_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapStoreErr("querying connections", err)
	}
	defer rows.Close()

	var conns []entity.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, wrapStoreErr("scanning connection row", err)
		}
		conns = append(conns, *conn)
	}

	return conns, nil
}

// Deactivate marks a connection inactive
func (r *ConnectionPostgres) Deactivate(ctx context.Context, id string) error {
	query := `
		UPDATE platform_connections
		SET is_active = FALSE, updated_at = $2
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return wrapStoreErr("deactivating connection", err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrConnectionNotFound
	}

	return nil
}

func scanConnection(row pgx.Row) (*entity.Connection, error) {
	var conn entity.Connection
	var displayName *string

	err := row.Scan(
		&conn.ID,
		&conn.UserID,
		&conn.Platform,
		&conn.ExternalUserID,
		&displayName,
		&conn.AccessToken,
		&conn.IsActive,
		&conn.ConnectedAt,
		&conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if displayName != nil {
		conn.DisplayName = *displayName
	}

	return &conn, nil
}

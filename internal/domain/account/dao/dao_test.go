package dao

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	postentity "github.com/vadim/artflow/internal/domain/post/entity"
)

func TestWrapStoreErr(t *testing.T) {
	t.Run("unique violation maps to conflict", func(t *testing.T) {
		err := wrapStoreErr("inserting connection", &pgconn.PgError{Code: "23505"})
		if !errors.Is(err, postentity.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("transient failure maps to store unavailable", func(t *testing.T) {
		err := wrapStoreErr("querying connections", errors.New("connection refused"))
		if !errors.Is(err, postentity.ErrStoreUnavailable) {
			t.Errorf("err = %v, want ErrStoreUnavailable", err)
		}
	})
}

package repos

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/apierr"
)

const pgUniqueViolation = "23505"

// mapWriteError converts driver-level failures into the API error taxonomy.
// Unique-constraint violations surface as conflicts so handlers can return
// 409 instead of a generic 500.
func mapWriteError(err error, conflictMsg string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apierr.Conflict(conflictMsg)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apierr.Conflict(conflictMsg)
	}
	// The sqlite driver used in tests reports unique violations as plain
	// text, not a typed error.
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return apierr.Conflict(conflictMsg)
	}
	return err
}

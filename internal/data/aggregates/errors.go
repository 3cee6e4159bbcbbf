package aggregates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
)

// MapError maps storage failures onto the API error taxonomy.
// Already-classified errors pass through unchanged.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *apierr.Error
	if errors.As(err, &classified) {
		return err
	}
	wrapped := fmt.Errorf("%s: %w", op, err)

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierr.New(apierr.KindNotFound, "not found", wrapped)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apierr.New(apierr.KindConflict, "already exists", wrapped)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apierr.Unavailable(wrapped)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return apierr.New(apierr.KindConflict, "already exists", wrapped) // unique_violation
		case "23503":
			return apierr.New(apierr.KindPreconditionFailed, "referenced row missing", wrapped) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return apierr.Unavailable(wrapped) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "unique constraint failed"),
		strings.Contains(msg, "already exists"):
		return apierr.New(apierr.KindConflict, "already exists", wrapped)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "temporar"):
		return apierr.Unavailable(wrapped)
	default:
		return apierr.Internal(wrapped)
	}
}

// IsConflict reports whether err is a uniqueness violation after mapping.
func IsConflict(err error) bool {
	return apierr.Is(MapError("is_conflict", err), apierr.KindConflict)
}

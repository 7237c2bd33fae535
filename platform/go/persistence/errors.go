package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/posbill/posbill-saas/platform/go/access"
)

var (
	// ErrNotFound is returned when a row is missing. It is the access package sentinel so gate readers
	// can match it with errors.Is.
	ErrNotFound = access.ErrNotFound
	// ErrConflict indicates a uniqueness violation (e.g., duplicated email or slug).
	ErrConflict = errors.New("record conflict")
	// ErrNoTenantBinding is returned by tenant-scoped stores when the context carries no bound tenant.
	ErrNoTenantBinding = errors.New("no tenant bound to context")
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

package auth

import (
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsUniqueViolation reports whether err is a unique constraint failure from
// Postgres or SQLite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// IsForeignKeyViolation reports whether err is a foreign key failure
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.ForeignKeyViolation
	}

	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isNotFound(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}

// notFoundOr maps storage not found errors to base, anything else passes through
func notFoundOr(err error, base *errors.Error, meta map[string]any) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return withDetails(base, meta)
	}
	return err
}

func affectedOrNotFound(res sql.Result, err error, base *errors.Error, meta map[string]any) error {
	if err != nil {
		return notFoundOr(err, base, meta)
	}
	if res == nil {
		return withDetails(base, meta)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return withDetails(base, meta)
	}
	return nil
}

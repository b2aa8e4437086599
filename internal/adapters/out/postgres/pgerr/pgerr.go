// Package pgerr maps PostgreSQL error codes to the shared error types.
package pgerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"robodelivery/internal/pkg/errs"
)

// UniqueViolation is the SQLSTATE of a duplicate key.
const UniqueViolation = "23505"

// IsUniqueViolation reports whether err is a duplicate key error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == UniqueViolation
}

// Translate turns a duplicate key into an errs.ConflictError and returns other errors as is.
func Translate(err error, entity string, id any, expected any) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return errs.NewConflictErrorWithCause(entity, id, expected, err)
	}
	return err
}

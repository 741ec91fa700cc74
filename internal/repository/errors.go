package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateKey signals a uniqueness-constraint violation. The ticket id
// generator retries on it; everything else surfaces it as a conflict.
var ErrDuplicateKey = errors.New("duplicate key")

const pgUniqueViolation = "23505"

func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateKey
	}
	return err
}

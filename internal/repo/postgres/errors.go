package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEmailTaken        = errors.New("email already in use")
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
	ErrNoUpdates         = errors.New("no updatable fields")
)

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	return false
}

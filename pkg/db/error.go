package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgLockNotAvailable     = "55P03"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if hasPGCode(err, pgUniqueViolation) {
		return true
	}

	msg := err.Error()
	switch {
	// PostgreSQL through database/sql drivers
	case strings.Contains(msg, "duplicate key value violates unique constraint"):
		return true
	// MySQL 1062
	case strings.Contains(msg, "Error 1062"):
		return true
	// SQLite 2067
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return true
	}
	return false
}

// IsRetryableErr reports store errors that clear up when the caller retries.
func IsRetryableErr(err error) bool {
	return hasPGCode(err, pgSerializationFailure) || hasPGCode(err, pgLockNotAvailable)
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

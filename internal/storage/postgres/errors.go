package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mcoot/rpsarena/internal/model"
)

// SQLSTATE codes worth retrying
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

const codeUniqueViolation = "23505"

// waitingRoomIndex allows one waiting room per host
const waitingRoomIndex = "uq_rooms_waiting_host"

// classify marks lock contention and dropped connections as transient.
// Anything else, including domain errors returned by callbacks, passes through.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return model.Transient(err)
		}
		return err
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return model.Transient(err)
	}
	return err
}

// isUniqueViolation reports whether err is a unique violation on the named constraint
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation && pgErr.ConstraintName == constraint
}

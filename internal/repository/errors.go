package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"

	"github.com/lib/pq"

	apperr "parkmate/internal/errors"
)

// Postgres error codes that mean "try again", not "you did something wrong".
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// wrapStoreErr classifies a database error: lock contention, serialization
// aborts and dead connections become TransientError so the service layer can
// retry them; everything else passes through unchanged.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return apperr.Transient(err)
		}
		return err
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, context.DeadlineExceeded) {
		return apperr.Transient(err)
	}
	return err
}

package errors

import stderrors "errors"

// Business-rule errors. All of them are terminal: the caller gets them as-is
// and no partial state is left behind.
var (
	ErrUnregistered      = stderrors.New("user is not registered")
	ErrSpotUnavailable   = stderrors.New("parking spot is unavailable")
	ErrInsufficientFunds = stderrors.New("insufficient balance")
	ErrInvalidAmount     = stderrors.New("top-up amount must be positive")
)

// ErrMalformedRecord marks a session row whose spot or user reference is
// gone. The reaper logs and skips these, it never aborts the loop on them.
var ErrMalformedRecord = stderrors.New("malformed record")

// TransientError wraps store failures that are safe to retry: lock
// contention, serialization aborts, lost connections.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient store failure: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable store failure.
func Transient(err error) error {
	return &TransientError{Err: err}
}

// IsTransient reports whether err is eligible for automatic retry.
func IsTransient(err error) bool {
	var te *TransientError
	return stderrors.As(err, &te)
}

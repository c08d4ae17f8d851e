package errors

import (
	stderrors "errors"
	"net/http"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// FromBusinessError maps the business error taxonomy onto HTTP responses.
// Anything unrecognized is reported as an internal error.
func FromBusinessError(err error) *HTTPError {
	switch {
	case stderrors.Is(err, ErrUnregistered):
		return NewHTTPError(http.StatusForbidden, err.Error())
	case stderrors.Is(err, ErrSpotUnavailable):
		return NewHTTPError(http.StatusConflict, err.Error())
	case stderrors.Is(err, ErrInsufficientFunds):
		return NewHTTPError(http.StatusPaymentRequired, err.Error())
	case stderrors.Is(err, ErrInvalidAmount):
		return NewHTTPError(http.StatusBadRequest, err.Error())
	case IsTransient(err):
		return NewHTTPError(http.StatusServiceUnavailable, "temporary failure, please retry")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

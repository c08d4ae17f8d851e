package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromBusinessError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"unregistered", ErrUnregistered, http.StatusForbidden},
		{"spot unavailable", ErrSpotUnavailable, http.StatusConflict},
		{"insufficient funds", ErrInsufficientFunds, http.StatusPaymentRequired},
		{"invalid amount", ErrInvalidAmount, http.StatusBadRequest},
		{"wrapped business error", fmt.Errorf("reserve: %w", ErrSpotUnavailable), http.StatusConflict},
		{"transient", Transient(stderrors.New("deadlock")), http.StatusServiceUnavailable},
		{"unknown", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, FromBusinessError(tt.err).Code)
		})
	}
}

func TestTransientWrapping(t *testing.T) {
	base := stderrors.New("lock timeout")
	err := Transient(base)

	assert.True(t, IsTransient(err))
	assert.True(t, IsTransient(fmt.Errorf("reserve: %w", err)))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsTransient(base))
}

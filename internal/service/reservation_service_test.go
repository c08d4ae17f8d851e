package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkmate/internal/entities"
	apperr "parkmate/internal/errors"
)

type fakeReservationStore struct {
	reserveErrs  []error
	reserveCalls int
	result       *entities.ReservationResult
	active       []entities.ActiveSession
	listErr      error
}

func (f *fakeReservationStore) Reserve(ctx context.Context, chatID string, spotID int, start, end time.Time) (*entities.ReservationResult, error) {
	f.reserveCalls++
	if f.reserveCalls <= len(f.reserveErrs) {
		if err := f.reserveErrs[f.reserveCalls-1]; err != nil {
			return nil, err
		}
	}
	return f.result, nil
}

func (f *fakeReservationStore) ListActive(ctx context.Context, chatID string, now time.Time) ([]entities.ActiveSession, error) {
	return f.active, f.listErr
}

func TestReserveBusinessErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unregistered", apperr.ErrUnregistered},
		{"spot unavailable", apperr.ErrSpotUnavailable},
		{"insufficient funds", apperr.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeReservationStore{reserveErrs: []error{tt.err}}
			svc := NewReservationService(store)

			_, err := svc.Reserve(context.Background(), "u1", 1, time.Now().UTC())
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, store.reserveCalls, "terminal errors must not be retried")
		})
	}
}

func TestReserveRetriesTransientFailures(t *testing.T) {
	result := &entities.ReservationResult{SessionID: 5, SpotID: 1, PricePaid: 300, Balance: 200}
	store := &fakeReservationStore{
		reserveErrs: []error{
			apperr.Transient(errors.New("deadlock detected")),
			apperr.Transient(errors.New("lock timeout")),
			nil,
		},
		result: result,
	}
	svc := NewReservationService(store)

	got, err := svc.Reserve(context.Background(), "u1", 1, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, result, got)
	assert.Equal(t, 3, store.reserveCalls)
}

func TestReserveGivesUpAfterBoundedAttempts(t *testing.T) {
	transient := apperr.Transient(errors.New("still locked"))
	store := &fakeReservationStore{
		reserveErrs: []error{transient, transient, transient, transient},
	}
	svc := NewReservationService(store)

	_, err := svc.Reserve(context.Background(), "u1", 1, time.Now().UTC())
	require.Error(t, err)
	assert.True(t, apperr.IsTransient(err))
	assert.Equal(t, 3, store.reserveCalls)
}

func TestReserveSessionSpansExactlyOneHour(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var gotStart, gotEnd time.Time
	store := &reserveCaptureStore{
		inner: &fakeReservationStore{result: &entities.ReservationResult{}},
		onReserve: func(start, end time.Time) {
			gotStart, gotEnd = start, end
		},
	}

	_, err := NewReservationService(store).Reserve(context.Background(), "u1", 1, now)
	require.NoError(t, err)
	assert.Equal(t, now, gotStart)
	assert.Equal(t, now.Add(time.Hour), gotEnd)
}

type reserveCaptureStore struct {
	inner     *fakeReservationStore
	onReserve func(start, end time.Time)
}

func (s *reserveCaptureStore) Reserve(ctx context.Context, chatID string, spotID int, start, end time.Time) (*entities.ReservationResult, error) {
	s.onReserve(start, end)
	return s.inner.Reserve(ctx, chatID, spotID, start, end)
}

func (s *reserveCaptureStore) ListActive(ctx context.Context, chatID string, now time.Time) ([]entities.ActiveSession, error) {
	return s.inner.ListActive(ctx, chatID, now)
}

func TestListActiveRemainingMinutesFloor(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeReservationStore{active: []entities.ActiveSession{
		{SessionID: 1, Location: "Lot A", EndTime: now.Add(59*time.Minute + 30*time.Second)},
		{SessionID: 2, Location: "Lot B", EndTime: now.Add(time.Hour)},
		{SessionID: 3, Location: "Lot C", EndTime: now.Add(30 * time.Second)},
	}}
	svc := NewReservationService(store)

	sessions, err := svc.ListActive(context.Background(), "u1", now)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, 59, sessions[0].RemainingMinutes)
	assert.Equal(t, 60, sessions[1].RemainingMinutes)
	assert.Equal(t, 0, sessions[2].RemainingMinutes)
}

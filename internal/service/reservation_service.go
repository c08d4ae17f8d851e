package service

import (
	"context"
	"log"
	"time"

	"parkmate/internal/entities"
	apperr "parkmate/internal/errors"
)

// SessionDuration is fixed: every reservation runs exactly one hour.
const SessionDuration = time.Hour

const (
	reserveMaxAttempts = 3
	reserveRetryDelay  = 50 * time.Millisecond
)

// ReservationStore executes the admission transaction and the active-session
// read. Reserve must be all-or-nothing: either the debit, the capacity
// decrement and the session row all commit, or none of them do.
type ReservationStore interface {
	Reserve(ctx context.Context, chatID string, spotID int, start, end time.Time) (*entities.ReservationResult, error)
	ListActive(ctx context.Context, chatID string, now time.Time) ([]entities.ActiveSession, error)
}

type ReservationService struct {
	store ReservationStore
}

func NewReservationService(store ReservationStore) *ReservationService {
	return &ReservationService{store: store}
}

// Reserve admits a one-hour session starting at now. Business errors come
// back as-is; transient store failures are retried a bounded number of times
// before being surfaced to the caller.
func (s *ReservationService) Reserve(ctx context.Context, chatID string, spotID int, now time.Time) (*entities.ReservationResult, error) {
	var lastErr error
	for attempt := 1; attempt <= reserveMaxAttempts; attempt++ {
		result, err := s.store.Reserve(ctx, chatID, spotID, now, now.Add(SessionDuration))
		if err == nil {
			return result, nil
		}
		if !apperr.IsTransient(err) {
			return nil, err
		}
		lastErr = err
		log.Printf("reserve attempt %d/%d for spot %d failed: %v", attempt, reserveMaxAttempts, spotID, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * reserveRetryDelay):
		}
	}
	return nil, lastErr
}

// ListActive returns the user's not-yet-expired sessions annotated with the
// remaining whole minutes. The boundary is strictly end_time > now: a
// session the reaper hasn't reclaimed yet but that has expired is not
// listed.
func (s *ReservationService) ListActive(ctx context.Context, chatID string, now time.Time) ([]entities.ActiveSession, error) {
	sessions, err := s.store.ListActive(ctx, chatID, now)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].RemainingMinutes = int(sessions[i].EndTime.Sub(now) / time.Minute)
	}
	return sessions, nil
}

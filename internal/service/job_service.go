package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	apperr "parkmate/internal/errors"
	"parkmate/internal/repository"
)

// ReaperStore is the persistence contract of the expiry reaper.
type ReaperStore interface {
	ListExpired(ctx context.Context, now time.Time) ([]repository.ExpiredSession, error)
	ReclaimSession(ctx context.Context, sessionID, spotID int) error
}

// JobService reclaims expired sessions: capacity back to the spot, session
// row gone, owner notified once. Each session is its own failure-isolated
// unit so a single bad record can never block the rest of the batch.
type JobService struct {
	store    ReaperStore
	notifier Notifier
}

func NewJobService(store ReaperStore, notifier Notifier) *JobService {
	return &JobService{store: store, notifier: notifier}
}

// ReclaimExpiredSessions runs one reaper cycle.
func (s *JobService) ReclaimExpiredSessions(ctx context.Context) error {
	now := time.Now().UTC()
	expired, err := s.store.ListExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("reaper: failed to list expired sessions: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}
	log.Printf("reaper: found %d expired sessions", len(expired))

	for _, sess := range expired {
		if err := s.store.ReclaimSession(ctx, sess.SessionID, sess.SpotID); err != nil {
			switch {
			case errors.Is(err, repository.ErrSessionAlreadyReclaimed):
				// Another cycle got here first; it also owns the notification.
			case errors.Is(err, apperr.ErrMalformedRecord):
				log.Printf("reaper: skipping malformed session %d: %v", sess.SessionID, err)
			default:
				log.Printf("reaper: failed to reclaim session %d: %v", sess.SessionID, err)
			}
			continue
		}

		if sess.UserMissing {
			log.Printf("reaper: session %d reclaimed but owner is gone, skipping notification", sess.SessionID)
			continue
		}
		text := fmt.Sprintf("Your parking time at '%s' has expired.", sess.SpotName)
		if err := s.notifier.Notify(ctx, sess.UserChatID, text); err != nil {
			// Notification is fire-and-forget relative to the reclaim.
			log.Printf("reaper: failed to notify user %s for session %d: %v", sess.UserChatID, sess.SessionID, err)
		}
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "parkmate/internal/errors"
	"parkmate/internal/repository"
)

type fakeReaperStore struct {
	expired     []repository.ExpiredSession
	listErr     error
	reclaimErrs map[int]error
	reclaimed   []int
}

func (f *fakeReaperStore) ListExpired(ctx context.Context, now time.Time) ([]repository.ExpiredSession, error) {
	return f.expired, f.listErr
}

func (f *fakeReaperStore) ReclaimSession(ctx context.Context, sessionID, spotID int) error {
	if err, ok := f.reclaimErrs[sessionID]; ok {
		return err
	}
	f.reclaimed = append(f.reclaimed, sessionID)
	return nil
}

type recordingNotifier struct {
	sent []string
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, chatID, text string) error {
	n.sent = append(n.sent, chatID+": "+text)
	return n.err
}

func TestReclaimNotifiesOncePerSession(t *testing.T) {
	store := &fakeReaperStore{expired: []repository.ExpiredSession{
		{SessionID: 1, SpotID: 10, UserChatID: "u1", SpotName: "Lot A"},
		{SessionID: 2, SpotID: 11, UserChatID: "u2", SpotName: "Lot B"},
	}}
	notifier := &recordingNotifier{}
	svc := NewJobService(store, notifier)

	require.NoError(t, svc.ReclaimExpiredSessions(context.Background()))
	assert.Equal(t, []int{1, 2}, store.reclaimed)
	require.Len(t, notifier.sent, 2)
	assert.Contains(t, notifier.sent[0], "u1")
	assert.Contains(t, notifier.sent[0], "Lot A")
	assert.Contains(t, notifier.sent[1], "u2")
	assert.Contains(t, notifier.sent[1], "Lot B")
}

func TestReclaimIsolatesFailures(t *testing.T) {
	store := &fakeReaperStore{
		expired: []repository.ExpiredSession{
			{SessionID: 1, SpotID: 10, UserChatID: "u1", SpotName: "Broken"},
			{SessionID: 2, SpotID: 11, UserChatID: "u2", SpotName: "Lot B"},
		},
		reclaimErrs: map[int]error{
			1: fmt.Errorf("session 1 references missing spot 10: %w", apperr.ErrMalformedRecord),
		},
	}
	notifier := &recordingNotifier{}
	svc := NewJobService(store, notifier)

	require.NoError(t, svc.ReclaimExpiredSessions(context.Background()))
	assert.Equal(t, []int{2}, store.reclaimed, "the bad record must not block the rest of the batch")
	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0], "u2")
}

func TestReclaimSkipsAlreadyReclaimedWithoutNotifying(t *testing.T) {
	store := &fakeReaperStore{
		expired: []repository.ExpiredSession{
			{SessionID: 1, SpotID: 10, UserChatID: "u1", SpotName: "Lot A"},
		},
		reclaimErrs: map[int]error{1: repository.ErrSessionAlreadyReclaimed},
	}
	notifier := &recordingNotifier{}
	svc := NewJobService(store, notifier)

	require.NoError(t, svc.ReclaimExpiredSessions(context.Background()))
	assert.Empty(t, notifier.sent, "losing the reclaim race must not produce a second notification")
}

func TestReclaimSurvivesNotifierFailure(t *testing.T) {
	store := &fakeReaperStore{expired: []repository.ExpiredSession{
		{SessionID: 1, SpotID: 10, UserChatID: "u1", SpotName: "Lot A"},
		{SessionID: 2, SpotID: 11, UserChatID: "u2", SpotName: "Lot B"},
	}}
	notifier := &recordingNotifier{err: errors.New("telegram down")}
	svc := NewJobService(store, notifier)

	require.NoError(t, svc.ReclaimExpiredSessions(context.Background()))
	assert.Equal(t, []int{1, 2}, store.reclaimed, "delivery failure must not roll back reclamation")
}

func TestReclaimSkipsNotificationWhenOwnerIsGone(t *testing.T) {
	store := &fakeReaperStore{expired: []repository.ExpiredSession{
		{SessionID: 1, SpotID: 10, UserMissing: true, SpotName: "Lot A"},
	}}
	notifier := &recordingNotifier{}
	svc := NewJobService(store, notifier)

	require.NoError(t, svc.ReclaimExpiredSessions(context.Background()))
	assert.Equal(t, []int{1}, store.reclaimed)
	assert.Empty(t, notifier.sent)
}

func TestReclaimSurfacesListFailure(t *testing.T) {
	store := &fakeReaperStore{listErr: errors.New("connection refused")}
	svc := NewJobService(store, &recordingNotifier{})

	err := svc.ReclaimExpiredSessions(context.Background())
	assert.Error(t, err)
}

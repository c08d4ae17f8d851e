package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperr "parkmate/internal/errors"
)

// ErrSessionAlreadyReclaimed means another reaper cycle deleted the session
// first. The caller must not send a second notification.
var ErrSessionAlreadyReclaimed = errors.New("session already reclaimed")

// ExpiredSession is one unit of reaper work: everything needed to reclaim
// the capacity and notify the owner. Spot and user data come from LEFT
// JOINs so a dangling reference still surfaces as a row to be dealt with.
type ExpiredSession struct {
	SessionID   int
	SpotID      int
	UserChatID  string
	SpotName    string
	SpotMissing bool
	UserMissing bool
	EndTime     time.Time
}

// JobRepository holds the queries of the background reclamation job.
type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// ListExpired returns all sessions whose end time is at or before now.
func (r *JobRepository) ListExpired(ctx context.Context, now time.Time) ([]ExpiredSession, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT ps.id, ps.spot_id, u.chat_id, sp.location, ps.end_time
		 FROM parking_sessions ps
		 LEFT JOIN users u ON u.id = ps.user_id
		 LEFT JOIN parking_spots sp ON sp.id = ps.spot_id
		 WHERE ps.end_time <= $1
		 ORDER BY ps.id`,
		now)
	if err != nil {
		return nil, fmt.Errorf("error querying expired sessions: %w", wrapStoreErr(err))
	}
	defer rows.Close()

	var expired []ExpiredSession
	for rows.Next() {
		var e ExpiredSession
		var chatID, location sql.NullString
		if err := rows.Scan(&e.SessionID, &e.SpotID, &chatID, &location, &e.EndTime); err != nil {
			return nil, fmt.Errorf("error scanning expired session: %w", err)
		}
		e.UserChatID = chatID.String
		e.UserMissing = !chatID.Valid
		e.SpotName = location.String
		e.SpotMissing = !location.Valid
		expired = append(expired, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating expired sessions: %w", wrapStoreErr(err))
	}
	return expired, nil
}

// ReclaimSession releases one expired session: under the spot row lock it
// deletes the session and gives the space back, as a single atomic unit.
// Deleting before incrementing lets a concurrent cycle detect that it lost
// the race (zero rows deleted) and back off without double-crediting.
func (r *JobRepository) ReclaimSession(ctx context.Context, sessionID, spotID int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting reclaim tx: %w", wrapStoreErr(err))
	}
	defer tx.Rollback()

	var freeSpaces int
	err = tx.QueryRowContext(ctx,
		`SELECT free_spaces FROM parking_spots WHERE id = $1 FOR UPDATE`,
		spotID).Scan(&freeSpaces)
	if errors.Is(err, sql.ErrNoRows) {
		// The spot row is gone. Drop the orphan session so it cannot wedge
		// the loop forever, then report it for logging.
		if _, delErr := tx.ExecContext(ctx,
			`DELETE FROM parking_sessions WHERE id = $1`, sessionID); delErr != nil {
			return fmt.Errorf("error deleting orphan session %d: %w", sessionID, wrapStoreErr(delErr))
		}
		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("error committing orphan cleanup: %w", wrapStoreErr(commitErr))
		}
		return fmt.Errorf("session %d references missing spot %d: %w", sessionID, spotID, apperr.ErrMalformedRecord)
	}
	if err != nil {
		return fmt.Errorf("error locking spot for reclaim: %w", wrapStoreErr(err))
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM parking_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("error deleting session: %w", wrapStoreErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	if affected == 0 {
		return ErrSessionAlreadyReclaimed
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE parking_spots SET free_spaces = free_spaces + 1, available = TRUE WHERE id = $1`,
		spotID); err != nil {
		return fmt.Errorf("error releasing spot space: %w", wrapStoreErr(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing reclaim: %w", wrapStoreErr(err))
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkmate/internal/db"
	"parkmate/internal/entities"
	apperr "parkmate/internal/errors"
)

// ReservationRepository owns the one transaction in the system that touches
// both aggregate roots. Lock order is fixed everywhere: the spot row is
// locked before the user row, so admission and reclamation can never
// deadlock against each other.
type ReservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(database *sql.DB) *ReservationRepository {
	return &ReservationRepository{DB: database}
}

// Reserve admits a reservation as a single atomic unit: debit the balance,
// take one space, create the session. Preconditions fail with their terminal
// business error and roll everything back. Two concurrent calls against a
// spot with one space left serialize on the spot row lock; the loser sees
// free_spaces == 0 and gets ErrSpotUnavailable.
func (r *ReservationRepository) Reserve(ctx context.Context, chatID string, spotID int, start, end time.Time) (*entities.ReservationResult, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error starting reservation tx: %w", wrapStoreErr(err))
	}
	defer tx.Rollback()

	var user db.User
	err = tx.QueryRowContext(ctx,
		`SELECT id, balance FROM users WHERE chat_id = $1`,
		chatID).Scan(&user.ID, &user.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrUnregistered
	}
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", wrapStoreErr(err))
	}

	var spot db.ParkingSpot
	err = tx.QueryRowContext(ctx,
		`SELECT id, location, price_per_hour, available, free_spaces
		 FROM parking_spots WHERE id = $1 FOR UPDATE`,
		spotID).Scan(&spot.ID, &spot.Location, &spot.PricePerHour, &spot.Available, &spot.FreeSpaces)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrSpotUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("error locking spot: %w", wrapStoreErr(err))
	}
	if spot.FreeSpaces <= 0 {
		return nil, apperr.ErrSpotUnavailable
	}

	// Re-read the balance under the row lock; the unlocked read above only
	// established existence.
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE id = $1 FOR UPDATE`,
		user.ID).Scan(&user.Balance)
	if err != nil {
		return nil, fmt.Errorf("error locking user: %w", wrapStoreErr(err))
	}
	if user.Balance < spot.PricePerHour {
		return nil, apperr.ErrInsufficientFunds
	}

	user.Balance -= spot.PricePerHour
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = $1 WHERE id = $2`,
		user.Balance, user.ID); err != nil {
		return nil, fmt.Errorf("error debiting balance: %w", wrapStoreErr(err))
	}

	spot.FreeSpaces--
	spot.Available = spot.FreeSpaces > 0
	if _, err := tx.ExecContext(ctx,
		`UPDATE parking_spots SET free_spaces = $1, available = $2 WHERE id = $3`,
		spot.FreeSpaces, spot.Available, spot.ID); err != nil {
		return nil, fmt.Errorf("error taking spot space: %w", wrapStoreErr(err))
	}

	var sessionID int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO parking_sessions (user_id, spot_id, start_time, end_time)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		user.ID, spot.ID, start, end).Scan(&sessionID)
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", wrapStoreErr(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing reservation: %w", wrapStoreErr(err))
	}

	return &entities.ReservationResult{
		SessionID:   sessionID,
		SpotID:      spot.ID,
		Location:    spot.Location,
		PricePaid:   spot.PricePerHour,
		Balance:     user.Balance,
		StartTime:   start,
		EndTime:     end,
		SpotFullNow: !spot.Available,
	}, nil
}

// ListActive returns the user's sessions with end_time strictly after now,
// in insertion order. Expired-but-unreclaimed sessions are deliberately
// excluded; the boundary is exactly end_time > now.
func (r *ReservationRepository) ListActive(ctx context.Context, chatID string, now time.Time) ([]entities.ActiveSession, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT ps.id, ps.spot_id, sp.location, ps.end_time
		 FROM parking_sessions ps
		 JOIN users u ON u.id = ps.user_id
		 JOIN parking_spots sp ON sp.id = ps.spot_id
		 WHERE u.chat_id = $1 AND ps.end_time > $2
		 ORDER BY ps.id`,
		chatID, now)
	if err != nil {
		return nil, fmt.Errorf("error listing active sessions: %w", wrapStoreErr(err))
	}
	defer rows.Close()

	var sessions []entities.ActiveSession
	for rows.Next() {
		var s entities.ActiveSession
		if err := rows.Scan(&s.SessionID, &s.SpotID, &s.Location, &s.EndTime); err != nil {
			return nil, fmt.Errorf("error scanning active session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating active sessions: %w", wrapStoreErr(err))
	}
	return sessions, nil
}

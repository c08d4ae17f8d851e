package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parkmate/internal/db"
	apperr "parkmate/internal/errors"
)

// UserRepository is the durable ledger: chat identity, balance and
// registration state. All mutations are single atomic statements, so
// concurrent callers on the same row serialize inside Postgres.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(database *sql.DB) *UserRepository {
	return &UserRepository{DB: database}
}

// GetOrCreateUser returns the user for chatID, creating a zero-balance row on
// first contact. The insert races safely against concurrent first contacts
// through the unique constraint on chat_id.
func (r *UserRepository) GetOrCreateUser(ctx context.Context, chatID string) (*db.User, error) {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (chat_id, balance) VALUES ($1, 0) ON CONFLICT (chat_id) DO NOTHING`,
		chatID)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", wrapStoreErr(err))
	}
	return r.GetByChatID(ctx, chatID)
}

// GetByChatID returns ErrUnregistered when no row exists for chatID.
func (r *UserRepository) GetByChatID(ctx context.Context, chatID string) (*db.User, error) {
	var u db.User
	var carNumber sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, chat_id, balance, car_number FROM users WHERE chat_id = $1`,
		chatID).Scan(&u.ID, &u.ChatID, &u.Balance, &carNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrUnregistered
	}
	if err != nil {
		return nil, fmt.Errorf("error querying user: %w", wrapStoreErr(err))
	}
	u.CarNumber = carNumber.String
	return &u, nil
}

// CreditBalance atomically adds amount to the user's balance and returns the
// updated row. Amount validation happens in the service layer.
func (r *UserRepository) CreditBalance(ctx context.Context, chatID string, amount int) (*db.User, error) {
	var u db.User
	var carNumber sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`UPDATE users SET balance = balance + $1 WHERE chat_id = $2
		 RETURNING id, chat_id, balance, car_number`,
		amount, chatID).Scan(&u.ID, &u.ChatID, &u.Balance, &carNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrUnregistered
	}
	if err != nil {
		return nil, fmt.Errorf("error crediting balance: %w", wrapStoreErr(err))
	}
	u.CarNumber = carNumber.String
	return &u, nil
}

// SetCarNumber stores the vehicle plate that completes registration.
func (r *UserRepository) SetCarNumber(ctx context.Context, chatID, carNumber string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET car_number = $1 WHERE chat_id = $2`,
		carNumber, chatID)
	if err != nil {
		return fmt.Errorf("error setting car number: %w", wrapStoreErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error setting car number: %w", err)
	}
	if affected == 0 {
		return apperr.ErrUnregistered
	}
	return nil
}

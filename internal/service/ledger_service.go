package service

import (
	"context"

	"parkmate/internal/db"
	"parkmate/internal/entities"
	apperr "parkmate/internal/errors"
)

// LedgerStore is the durable user ledger contract.
type LedgerStore interface {
	GetOrCreateUser(ctx context.Context, chatID string) (*db.User, error)
	CreditBalance(ctx context.Context, chatID string, amount int) (*db.User, error)
	SetCarNumber(ctx context.Context, chatID, carNumber string) error
}

type LedgerService struct {
	store LedgerStore
}

func NewLedgerService(store LedgerStore) *LedgerService {
	return &LedgerService{store: store}
}

// Start registers the user on first contact and reports registration state.
func (s *LedgerService) Start(ctx context.Context, chatID string) (*entities.UserProfile, error) {
	user, err := s.store.GetOrCreateUser(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return profileOf(user), nil
}

// TopUp is a trusted internal credit, not a payment gateway call. Amounts
// must be strictly positive.
func (s *LedgerService) TopUp(ctx context.Context, chatID string, amount int) (*entities.UserProfile, error) {
	if amount <= 0 {
		return nil, apperr.ErrInvalidAmount
	}
	user, err := s.store.CreditBalance(ctx, chatID, amount)
	if err != nil {
		return nil, err
	}
	return profileOf(user), nil
}

// SetCarNumber completes the registration started by Start.
func (s *LedgerService) SetCarNumber(ctx context.Context, chatID, carNumber string) error {
	return s.store.SetCarNumber(ctx, chatID, carNumber)
}

func profileOf(user *db.User) *entities.UserProfile {
	return &entities.UserProfile{
		ChatID:     user.ChatID,
		Balance:    user.Balance,
		CarNumber:  user.CarNumber,
		Registered: user.CarNumber != "",
	}
}

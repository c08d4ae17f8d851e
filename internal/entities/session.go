package entities

import "time"

// ReservationResult is the outcome of a successful reservation: the created
// session plus the debited balance, so the chat layer can confirm in one
// message.
type ReservationResult struct {
	SessionID   int       `json:"session_id"`
	SpotID      int       `json:"spot_id"`
	Location    string    `json:"location"`
	PricePaid   int       `json:"price_paid"`
	Balance     int       `json:"balance"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	SpotFullNow bool      `json:"spot_full_now"`
}

// ActiveSession is one entry of "my parkings": a session that has not yet
// reached its end time, annotated with the remaining whole minutes.
type ActiveSession struct {
	SessionID        int       `json:"session_id"`
	SpotID           int       `json:"spot_id"`
	Location         string    `json:"location"`
	EndTime          time.Time `json:"end_time"`
	RemainingMinutes int       `json:"remaining_minutes"`
}

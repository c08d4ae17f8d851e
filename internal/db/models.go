package db

import "time"

// User is a ledger row. Balance is stored in whole tenge and must never go
// negative. CarNumber is empty until the user finishes registration.
type User struct {
	ID        int
	ChatID    string
	Balance   int
	CarNumber string
}

// ParkingSpot rows are created lazily on first discovery and never deleted.
// Available must equal FreeSpaces > 0 after every mutation.
type ParkingSpot struct {
	ID           int
	Location     string
	PricePerHour int
	Available    bool
	FreeSpaces   int
	Latitude     float64
	Longitude    float64
}

// ParkingSession is written once at reservation time and deleted once by the
// reaper. EndTime is always StartTime plus the fixed session duration.
type ParkingSession struct {
	ID        int
	UserID    int
	SpotID    int
	StartTime time.Time
	EndTime   time.Time
}

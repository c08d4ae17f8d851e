package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parkmate/internal/db"
	apperr "parkmate/internal/errors"
)

// SpotRepository persists the spot catalog. Spots are keyed by their unique
// location name; price and capacity are fixed at first creation and only an
// admin can change them afterwards.
type SpotRepository struct {
	DB *sql.DB
}

func NewSpotRepository(database *sql.DB) *SpotRepository {
	return &SpotRepository{DB: database}
}

// GetByName returns (nil, nil) when no spot with that location exists.
func (r *SpotRepository) GetByName(ctx context.Context, location string) (*db.ParkingSpot, error) {
	var s db.ParkingSpot
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, location, price_per_hour, available, free_spaces, latitude, longitude
		 FROM parking_spots WHERE location = $1`,
		location).Scan(&s.ID, &s.Location, &s.PricePerHour, &s.Available, &s.FreeSpaces, &s.Latitude, &s.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying spot by name: %w", wrapStoreErr(err))
	}
	return &s, nil
}

func (r *SpotRepository) GetByID(ctx context.Context, id int) (*db.ParkingSpot, error) {
	var s db.ParkingSpot
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, location, price_per_hour, available, free_spaces, latitude, longitude
		 FROM parking_spots WHERE id = $1`,
		id).Scan(&s.ID, &s.Location, &s.PricePerHour, &s.Available, &s.FreeSpaces, &s.Latitude, &s.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrSpotUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("error querying spot: %w", wrapStoreErr(err))
	}
	return &s, nil
}

// CreateIfAbsent inserts the spot unless a row with the same location already
// exists, in which case the existing row wins and is returned unchanged. The
// unique constraint on location makes concurrent first-time resolution of the
// same name converge on a single row. The second return value reports whether
// this call created the row.
func (r *SpotRepository) CreateIfAbsent(ctx context.Context, spot *db.ParkingSpot) (*db.ParkingSpot, bool, error) {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO parking_spots (location, price_per_hour, available, free_spaces, latitude, longitude)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (location) DO NOTHING
		 RETURNING id`,
		spot.Location, spot.PricePerHour, spot.Available, spot.FreeSpaces, spot.Latitude, spot.Longitude).
		Scan(&spot.ID)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost the race (or the row predates us): fetch the winner.
		existing, err := r.GetByName(ctx, spot.Location)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, apperr.Transient(fmt.Errorf("spot %q vanished between insert and select", spot.Location))
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error inserting spot: %w", wrapStoreErr(err))
	}
	return spot, true, nil
}

// ListLocations returns the set of known spot names, used by the best-effort
// de-dup check of free spot generation.
func (r *SpotRepository) ListLocations(ctx context.Context) (map[string]bool, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT location FROM parking_spots`)
	if err != nil {
		return nil, fmt.Errorf("error listing spot locations: %w", wrapStoreErr(err))
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var location string
		if err := rows.Scan(&location); err != nil {
			return nil, fmt.Errorf("error scanning spot location: %w", err)
		}
		names[location] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating spot locations: %w", wrapStoreErr(err))
	}
	return names, nil
}

func (r *SpotRepository) ListAll(ctx context.Context) ([]db.ParkingSpot, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, location, price_per_hour, available, free_spaces, latitude, longitude
		 FROM parking_spots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error listing spots: %w", wrapStoreErr(err))
	}
	defer rows.Close()

	var spots []db.ParkingSpot
	for rows.Next() {
		var s db.ParkingSpot
		if err := rows.Scan(&s.ID, &s.Location, &s.PricePerHour, &s.Available, &s.FreeSpaces, &s.Latitude, &s.Longitude); err != nil {
			return nil, fmt.Errorf("error scanning spot: %w", err)
		}
		spots = append(spots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating spots: %w", wrapStoreErr(err))
	}
	return spots, nil
}

// UpdateSpot sets price and free spaces for an admin correction. The
// available flag is recomputed from free_spaces so the catalog invariant
// holds after the mutation.
func (r *SpotRepository) UpdateSpot(ctx context.Context, id, pricePerHour, freeSpaces int) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE parking_spots SET price_per_hour = $1, free_spaces = $2, available = ($2 > 0) WHERE id = $3`,
		pricePerHour, freeSpaces, id)
	if err != nil {
		return fmt.Errorf("error updating spot: %w", wrapStoreErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating spot: %w", err)
	}
	if affected == 0 {
		return apperr.ErrSpotUnavailable
	}
	return nil
}

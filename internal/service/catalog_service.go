package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"parkmate/internal/db"
	"parkmate/internal/entities"
)

// CatalogStore is the persistence contract of the spot catalog.
type CatalogStore interface {
	GetByName(ctx context.Context, location string) (*db.ParkingSpot, error)
	CreateIfAbsent(ctx context.Context, spot *db.ParkingSpot) (*db.ParkingSpot, bool, error)
	ListLocations(ctx context.Context) (map[string]bool, error)
}

// SpotGenerator supplies price and capacity for a spot seen for the first
// time. Injected so the engine stays deterministic under a fixed seed.
type SpotGenerator func() (pricePerHour, freeSpaces int)

// Reference point used when the chat layer sends no coordinates (Almaty
// city center, same as the source system).
const (
	DefaultLatitude  = 43.238949
	DefaultLongitude = 76.889709
)

const freeSpotsPerRequest = 5

// CatalogService deduplicates spots discovered through the external lookup
// by their location name. Price and capacity are rolled once, on first
// sight, and never again.
type CatalogService struct {
	store  CatalogStore
	places PlacesClient

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCatalogService(store CatalogStore, places PlacesClient, seed int64) *CatalogService {
	return &CatalogService{
		store:  store,
		places: places,
		rnd:    rand.New(rand.NewSource(seed)),
	}
}

// RandomSpotGenerator rolls the standard pricing: price in {200..1000} tenge
// in steps of 100, capacity in [50,500].
func (s *CatalogService) RandomSpotGenerator() SpotGenerator {
	return func() (int, int) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return (s.rnd.Intn(9) + 2) * 100, s.rnd.Intn(451) + 50
	}
}

// FreeSpotGenerator rolls a free spot: price 0, capacity in [20,100].
func (s *CatalogService) FreeSpotGenerator() SpotGenerator {
	return func() (int, int) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return 0, s.rnd.Intn(81) + 20
	}
}

// ResolveSpot returns the catalog entry for the given location name,
// creating it from the generator if this is the first sighting. Concurrent
// first sightings of the same name converge on one row; whoever loses the
// insert race gets the winner's price and capacity.
func (s *CatalogService) ResolveSpot(ctx context.Context, name string, lat, lon float64, gen SpotGenerator) (*db.ParkingSpot, error) {
	existing, err := s.store.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	price, spaces := gen()
	spot := &db.ParkingSpot{
		Location:     name,
		PricePerHour: price,
		Available:    true,
		FreeSpaces:   spaces,
		Latitude:     lat,
		Longitude:    lon,
	}
	resolved, _, err := s.store.CreateIfAbsent(ctx, spot)
	return resolved, err
}

// FindNearby asks the places provider for parkings around (lat, lon) and
// resolves the nearest candidate through the catalog. The provider call
// happens before any store transaction is opened. A nil result means no
// parkings nearby, which is not an error.
func (s *CatalogService) FindNearby(ctx context.Context, lat, lon float64) (*entities.SpotResult, error) {
	places, err := s.places.Search(ctx, lat, lon, "", false)
	if err != nil {
		return nil, fmt.Errorf("error searching nearby parkings: %w", err)
	}
	if len(places) == 0 {
		return nil, nil
	}

	nearest := places[0]
	spot, err := s.ResolveSpot(ctx, nearest.Name, nearest.Latitude, nearest.Longitude, s.RandomSpotGenerator())
	if err != nil {
		return nil, err
	}
	return spotResult(spot, nearest.Address), nil
}

// SearchByName resolves up to three text-search candidates.
func (s *CatalogService) SearchByName(ctx context.Context, query string, lat, lon float64) ([]entities.SpotResult, error) {
	places, err := s.places.Search(ctx, lat, lon, query, false)
	if err != nil {
		return nil, fmt.Errorf("error searching parkings by name: %w", err)
	}
	if len(places) > 3 {
		places = places[:3]
	}

	results := make([]entities.SpotResult, 0, len(places))
	for _, p := range places {
		spot, err := s.ResolveSpot(ctx, p.Name, p.Latitude, p.Longitude, s.RandomSpotGenerator())
		if err != nil {
			return nil, err
		}
		results = append(results, *spotResult(spot, p.Address))
	}
	return results, nil
}

// GenerateFreeSpots synthesizes up to five free parking zones jittered
// around the given point. The name check against the current catalog is
// best-effort only: two concurrent calls can still both roll the same name,
// in which case the unique constraint makes one of them a no-op.
func (s *CatalogService) GenerateFreeSpots(ctx context.Context, lat, lon float64) ([]entities.SpotResult, error) {
	existing, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	gen := s.FreeSpotGenerator()
	var generated []entities.SpotResult
	for i := 0; i < freeSpotsPerRequest; i++ {
		s.mu.Lock()
		name := fmt.Sprintf("Free Parking Zone %d", s.rnd.Intn(9000)+1000)
		jitterLat := lat + s.rnd.Float64()*0.02 - 0.01
		jitterLon := lon + s.rnd.Float64()*0.02 - 0.01
		s.mu.Unlock()
		if existing[name] {
			continue
		}

		_, spaces := gen()
		spot := &db.ParkingSpot{
			Location:   name,
			Available:  true,
			FreeSpaces: spaces,
			Latitude:   jitterLat,
			Longitude:  jitterLon,
		}
		resolved, created, err := s.store.CreateIfAbsent(ctx, spot)
		if err != nil {
			return nil, err
		}
		if created {
			generated = append(generated, *spotResult(resolved, ""))
		}
	}
	return generated, nil
}

func spotResult(spot *db.ParkingSpot, address string) *entities.SpotResult {
	return &entities.SpotResult{
		ID:           spot.ID,
		Location:     spot.Location,
		Address:      address,
		PricePerHour: spot.PricePerHour,
		Available:    spot.Available,
		FreeSpaces:   spot.FreeSpaces,
		Latitude:     spot.Latitude,
		Longitude:    spot.Longitude,
	}
}

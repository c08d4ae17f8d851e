package service

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkmate/internal/db"
)

type fakeCatalogStore struct {
	mu     sync.Mutex
	spots  map[string]db.ParkingSpot
	nextID int
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{spots: make(map[string]db.ParkingSpot)}
}

func (f *fakeCatalogStore) GetByName(ctx context.Context, location string) (*db.ParkingSpot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.spots[location]; ok {
		out := s
		return &out, nil
	}
	return nil, nil
}

func (f *fakeCatalogStore) CreateIfAbsent(ctx context.Context, spot *db.ParkingSpot) (*db.ParkingSpot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.spots[spot.Location]; ok {
		out := existing
		return &out, false, nil
	}
	f.nextID++
	spot.ID = f.nextID
	f.spots[spot.Location] = *spot
	out := *spot
	return &out, true, nil
}

func (f *fakeCatalogStore) ListLocations(ctx context.Context) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make(map[string]bool, len(f.spots))
	for name := range f.spots {
		names[name] = true
	}
	return names, nil
}

type fakePlacesClient struct {
	places []Place
	err    error
}

func (f *fakePlacesClient) Search(ctx context.Context, lat, lon float64, query string, freeOnly bool) ([]Place, error) {
	return f.places, f.err
}

func TestResolveSpotIdempotent(t *testing.T) {
	store := newFakeCatalogStore()
	svc := NewCatalogService(store, nil, 42)

	first, err := svc.ResolveSpot(context.Background(), "Mega Park", 43.2, 76.9, svc.RandomSpotGenerator())
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.ResolveSpot(context.Background(), "Mega Park", 43.2, 76.9, svc.RandomSpotGenerator())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.PricePerHour, second.PricePerHour)
	assert.Equal(t, first.FreeSpaces, second.FreeSpaces)
	assert.Len(t, store.spots, 1)
}

func TestResolveSpotConcurrentFirstSight(t *testing.T) {
	store := newFakeCatalogStore()
	svc := NewCatalogService(store, nil, 7)

	const workers = 16
	results := make([]*db.ParkingSpot, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.ResolveSpot(context.Background(), "Lot A", 1, 2, svc.RandomSpotGenerator())
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.spots, 1)
	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, spot := range results {
		assert.Equal(t, results[0].ID, spot.ID)
		assert.Equal(t, results[0].PricePerHour, spot.PricePerHour)
		assert.Equal(t, results[0].FreeSpaces, spot.FreeSpaces)
	}
}

func TestRandomSpotGeneratorRanges(t *testing.T) {
	svc := NewCatalogService(newFakeCatalogStore(), nil, 1)
	gen := svc.RandomSpotGenerator()

	for i := 0; i < 1000; i++ {
		price, spaces := gen()
		assert.GreaterOrEqual(t, price, 200)
		assert.LessOrEqual(t, price, 1000)
		assert.Zero(t, price%100, "price must be a multiple of 100")
		assert.GreaterOrEqual(t, spaces, 50)
		assert.LessOrEqual(t, spaces, 500)
	}
}

func TestFreeSpotGeneratorRanges(t *testing.T) {
	svc := NewCatalogService(newFakeCatalogStore(), nil, 1)
	gen := svc.FreeSpotGenerator()

	for i := 0; i < 1000; i++ {
		price, spaces := gen()
		assert.Zero(t, price)
		assert.GreaterOrEqual(t, spaces, 20)
		assert.LessOrEqual(t, spaces, 100)
	}
}

func TestGenerateFreeSpots(t *testing.T) {
	store := newFakeCatalogStore()
	svc := NewCatalogService(store, nil, 3)

	spots, err := svc.GenerateFreeSpots(context.Background(), DefaultLatitude, DefaultLongitude)
	require.NoError(t, err)
	require.NotEmpty(t, spots)
	assert.LessOrEqual(t, len(spots), 5)

	namePattern := regexp.MustCompile(`^Free Parking Zone \d{4}$`)
	for _, s := range spots {
		assert.Regexp(t, namePattern, s.Location)
		assert.Zero(t, s.PricePerHour)
		assert.True(t, s.Available)
		assert.GreaterOrEqual(t, s.FreeSpaces, 20)
		assert.LessOrEqual(t, s.FreeSpaces, 100)
		assert.InDelta(t, DefaultLatitude, s.Latitude, 0.01)
		assert.InDelta(t, DefaultLongitude, s.Longitude, 0.01)
	}
}

func TestGenerateFreeSpotsSkipsKnownNames(t *testing.T) {
	store := newFakeCatalogStore()
	// Pre-seed every possible zone name so nothing new can materialize.
	for n := 1000; n <= 9999; n++ {
		name := fmt.Sprintf("Free Parking Zone %d", n)
		store.spots[name] = db.ParkingSpot{ID: n, Location: name}
	}
	svc := NewCatalogService(store, nil, 3)

	spots, err := svc.GenerateFreeSpots(context.Background(), DefaultLatitude, DefaultLongitude)
	require.NoError(t, err)
	assert.Empty(t, spots)
}

func TestSearchByNameResolvesTopThree(t *testing.T) {
	store := newFakeCatalogStore()
	places := &fakePlacesClient{places: []Place{
		{Name: "P1", Address: "a1", Latitude: 1, Longitude: 2},
		{Name: "P2", Address: "a2", Latitude: 3, Longitude: 4},
		{Name: "P3", Address: "a3", Latitude: 5, Longitude: 6},
		{Name: "P4", Address: "a4", Latitude: 7, Longitude: 8},
	}}
	svc := NewCatalogService(store, places, 11)

	results, err := svc.SearchByName(context.Background(), "park", DefaultLatitude, DefaultLongitude)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "P1", results[0].Location)
	assert.Equal(t, "a1", results[0].Address)
	assert.Len(t, store.spots, 3)
}

func TestFindNearbyEmptyResultIsNotAnError(t *testing.T) {
	svc := NewCatalogService(newFakeCatalogStore(), &fakePlacesClient{}, 11)

	result, err := svc.FindNearby(context.Background(), DefaultLatitude, DefaultLongitude)
	require.NoError(t, err)
	assert.Nil(t, result)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Place is one candidate spot from the external lookup provider.
type Place struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PlacesClient is the external places-lookup collaborator. An empty result
// is a normal, non-error outcome. Implementations may take arbitrarily long;
// callers must never hold a store lock across a Search call.
type PlacesClient interface {
	Search(ctx context.Context, lat, lon float64, query string, freeOnly bool) ([]Place, error)
}

const (
	placesSearchRadius = 3000
	placesCacheTTL     = 10 * time.Minute
)

// GooglePlacesClient queries the Google Places nearby/text search endpoints.
// Responses are cached in Redis for a short TTL so that repeated searches
// from the chat layer don't re-hit the provider; the cache is optional.
type GooglePlacesClient struct {
	apiKey string
	client *http.Client
	cache  *redis.Client
}

func NewGooglePlacesClient(apiKey string, cache *redis.Client) *GooglePlacesClient {
	return &GooglePlacesClient{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  cache,
	}
}

type googlePlacesResponse struct {
	Results []struct {
		Name             string `json:"name"`
		Vicinity         string `json:"vicinity"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (c *GooglePlacesClient) Search(ctx context.Context, lat, lon float64, query string, freeOnly bool) ([]Place, error) {
	cacheKey := fmt.Sprintf("places:%.5f:%.5f:%s:%t", lat, lon, query, freeOnly)
	if cached := c.cacheGet(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	endpoint := "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lat, lon))
	params.Set("radius", fmt.Sprintf("%d", placesSearchRadius))
	params.Set("type", "parking")
	params.Set("key", c.apiKey)
	params.Set("language", "ru")
	if query != "" {
		endpoint = "https://maps.googleapis.com/maps/api/place/textsearch/json"
		params = url.Values{}
		params.Set("query", query)
		params.Set("location", fmt.Sprintf("%f,%f", lat, lon))
		params.Set("radius", fmt.Sprintf("%d", placesSearchRadius))
		params.Set("key", c.apiKey)
		params.Set("language", "ru")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling places API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places API returned status %d", resp.StatusCode)
	}

	var parsed googlePlacesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("error decoding places response: %w", err)
	}

	places := make([]Place, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		address := r.Vicinity
		if address == "" {
			address = r.FormattedAddress
		}
		if freeOnly && !looksFree(r.Name, address) {
			continue
		}
		places = append(places, Place{
			Name:      r.Name,
			Address:   address,
			Latitude:  r.Geometry.Location.Lat,
			Longitude: r.Geometry.Location.Lng,
		})
	}

	c.cacheSet(ctx, cacheKey, places)
	return places, nil
}

func looksFree(name, address string) bool {
	name = strings.ToLower(name)
	address = strings.ToLower(address)
	return strings.Contains(name, "free") || strings.Contains(name, "бесплат") ||
		strings.Contains(address, "free") || strings.Contains(address, "бесплат")
}

func (c *GooglePlacesClient) cacheGet(ctx context.Context, key string) []Place {
	if c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("places cache read failed: %v", err)
		}
		return nil
	}
	var places []Place
	if err := json.Unmarshal(raw, &places); err != nil {
		return nil
	}
	return places
}

func (c *GooglePlacesClient) cacheSet(ctx context.Context, key string, places []Place) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(places)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, placesCacheTTL).Err(); err != nil {
		log.Printf("places cache write failed: %v", err)
	}
}

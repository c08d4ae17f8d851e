package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"parkmate/internal/entities"
	"parkmate/internal/service"
)

type SpotHandler struct {
	Catalog *service.CatalogService
}

func NewSpotHandler(catalog *service.CatalogService) *SpotHandler {
	return &SpotHandler{Catalog: catalog}
}

// FindNearby resolves the nearest externally-discovered parking around the
// caller's coordinates. 204 means no parkings nearby, which is normal.
func (h *SpotHandler) FindNearby(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseCoordinates(r)
	if !ok {
		http.Error(w, "Invalid coordinates", http.StatusBadRequest)
		return
	}

	result, err := h.Catalog.FindNearby(r.Context(), lat, lon)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SearchByName resolves up to three text-search candidates. Falls back to
// the default reference point when no coordinates are given.
func (h *SpotHandler) SearchByName(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}
	lat, lon, ok := parseCoordinates(r)
	if !ok {
		lat, lon = service.DefaultLatitude, service.DefaultLongitude
	}

	results, err := h.Catalog.SearchByName(r.Context(), query, lat, lon)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	if results == nil {
		results = []entities.SpotResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *SpotHandler) GenerateFreeSpots(w http.ResponseWriter, r *http.Request) {
	var req GenerateFreeSpotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Latitude == 0 && req.Longitude == 0 {
		req.Latitude, req.Longitude = service.DefaultLatitude, service.DefaultLongitude
	}

	spots, err := h.Catalog.GenerateFreeSpots(r.Context(), req.Latitude, req.Longitude)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	if spots == nil {
		spots = []entities.SpotResult{}
	}
	writeJSON(w, http.StatusOK, spots)
}

func parseCoordinates(r *http.Request) (float64, float64, bool) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

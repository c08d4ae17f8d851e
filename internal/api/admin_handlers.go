package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"parkmate/internal/repository"
)

type AdminHandler struct {
	Spots *repository.SpotRepository
}

func NewAdminHandler(spots *repository.SpotRepository) *AdminHandler {
	return &AdminHandler{Spots: spots}
}

func (h *AdminHandler) ListSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.Spots.ListAll(r.Context())
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, spots)
}

// UpdateSpot lets an admin correct price and capacity of a spot. The
// available flag is derived from free_spaces inside the store.
func (h *AdminHandler) UpdateSpot(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	var req UpdateSpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.PricePerHour < 0 || req.FreeSpaces < 0 {
		http.Error(w, "price_per_hour and free_spaces must be non-negative", http.StatusBadRequest)
		return
	}

	if err := h.Spots.UpdateSpot(r.Context(), id, req.PricePerHour, req.FreeSpaces); err != nil {
		writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Spot updated"})
}

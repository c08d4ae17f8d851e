package api

import (
	"encoding/json"
	"net/http"
	"time"

	"parkmate/internal/auth"
	"parkmate/internal/entities"
	"parkmate/internal/service"
)

type ReservationHandler struct {
	Service *service.ReservationService
}

func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{Service: svc}
}

func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.SpotID <= 0 {
		http.Error(w, "spot_id is required", http.StatusBadRequest)
		return
	}

	chatID := auth.ChatUserFromContext(r.Context())
	result, err := h.Service.Reserve(r.Context(), chatID, req.SpotID, time.Now().UTC())
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ListReservations returns the caller's active parkings with remaining
// minutes, in insertion order.
func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	chatID := auth.ChatUserFromContext(r.Context())
	sessions, err := h.Service.ListActive(r.Context(), chatID, time.Now().UTC())
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	if sessions == nil {
		sessions = []entities.ActiveSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"parkmate/internal/auth"
	"parkmate/internal/service"
)

type UserHandler struct {
	Ledger *service.LedgerService
}

func NewUserHandler(ledger *service.LedgerService) *UserHandler {
	return &UserHandler{Ledger: ledger}
}

// Start registers the caller on first contact and reports whether the
// car-number step is still pending.
func (h *UserHandler) Start(w http.ResponseWriter, r *http.Request) {
	chatID := auth.ChatUserFromContext(r.Context())
	profile, err := h.Ledger.Start(r.Context(), chatID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) SetCarNumber(w http.ResponseWriter, r *http.Request) {
	var req SetCarNumberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	carNumber := strings.TrimSpace(req.CarNumber)
	if carNumber == "" {
		http.Error(w, "car_number is required", http.StatusBadRequest)
		return
	}

	chatID := auth.ChatUserFromContext(r.Context())
	if err := h.Ledger.SetCarNumber(r.Context(), chatID, carNumber); err != nil {
		writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Car number saved"})
}

func (h *UserHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	chatID := auth.ChatUserFromContext(r.Context())
	profile, err := h.Ledger.TopUp(r.Context(), chatID, req.Amount)
	if err != nil {
		writeBusinessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

package api

import (
	"encoding/json"
	"log"
	"net/http"

	apperr "parkmate/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

// writeBusinessError maps the error taxonomy onto an HTTP response body.
func writeBusinessError(w http.ResponseWriter, err error) {
	httpErr := apperr.FromBusinessError(err)
	if httpErr.Code == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, httpErr.Code, map[string]string{"error": httpErr.Message})
}

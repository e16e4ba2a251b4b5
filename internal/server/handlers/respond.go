package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"nearby/internal/domain/chat"
)

// respondWithJSON writes a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to encode response", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError writes a JSON error response
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil && code >= 500 {
		log.Error().Err(err).Int("code", code).Str("message", message).Msg("http error")
	}

	jsonResponse, _ := json.Marshal(map[string]string{"error": message})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}

// respondWithDomainError maps the chat error taxonomy onto HTTP statuses:
// validation 400, not found 404, anything else (storage and friends) 500.
func respondWithDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrValidation):
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, chat.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), nil)
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

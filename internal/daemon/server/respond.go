package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ontrack-io/ontrack/internal/analytics"
	"github.com/ontrack-io/ontrack/internal/daemon/user"
	"github.com/ontrack-io/ontrack/internal/models"
	"github.com/ontrack-io/ontrack/internal/store"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[http] Failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeError maps an error to its status code. notFound is the message used
// for store.ErrNotFound.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var validation *models.ValidationError
	switch {
	case errors.As(err, &validation):
		writeMessage(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, analytics.ErrInvalidWindow):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFound)
	case errors.Is(err, user.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials.")
	case errors.Is(err, analytics.ErrDataUnavailable):
		log.Printf("[http] %s %s: %v", r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusServiceUnavailable, "Task data is temporarily unavailable. Please try again.")
	default:
		log.Printf("[http] %s %s: %v", r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error.")
	}
}

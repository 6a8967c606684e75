package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yourusername/arb-hedger/internal/models"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// StatusFor maps domain errors onto HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNoEligibleBookmakers):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrUnknownJob):
		return http.StatusNotFound
	case errors.Is(err, models.ErrJobAlreadyRunning), errors.Is(err, models.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, models.ErrBudgetExhausted):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrMissingProviderKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrAllSportsFailed),
		errors.Is(err, models.ErrProviderUnavailable),
		errors.Is(err, models.ErrProviderTimeout):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	entry := s.logger.WithError(err).WithField("path", r.URL.Path)
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	respondJSON(w, status, ErrorResponse{Error: http.StatusText(status), Message: message, Code: status})
}

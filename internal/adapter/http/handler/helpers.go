package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/giftledger/internal/adapter/http/dto"
	"github.com/iho/giftledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err to a status and names the rejected field for
// validation failures.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	resp := dto.ErrorResponse{Error: message, Message: err.Error()}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		resp.Field = vErr.Field
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(mapDomainError(err))
	json.NewEncoder(w).Encode(resp)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSortOrder):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseSeqParam reads the {seq} URL parameter.
func parseSeqParam(r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "seq")
	if raw == "" {
		return 0, false
	}
	seq, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seq <= 0 {
		return 0, false
	}
	return seq, true
}

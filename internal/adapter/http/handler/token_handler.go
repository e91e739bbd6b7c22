package handler

import (
	"net/http"

	"github.com/iho/giftledger/internal/adapter/http/dto"
	"github.com/iho/giftledger/internal/usecase"
)

// TokenHandler issues idempotency keys for the entry form.
type TokenHandler struct {
	ids usecase.IDGenerator
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(ids usecase.IDGenerator) *TokenHandler {
	return &TokenHandler{ids: ids}
}

// FormToken returns a fresh key. Clients send it as Idempotency-Key when the
// form is submitted and fetch a new one after each successful add.
func (h *TokenHandler) FormToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, dto.FormTokenResponse{Token: h.ids.Generate()})
}

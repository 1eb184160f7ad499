package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
)

type TokenHandler struct {
	service ports.TokenService
}

func NewTokenHandler(service ports.TokenService) *TokenHandler {
	return &TokenHandler{
		service: service,
	}
}

type generateTokensRequest struct {
	Count int `json:"count"`
}

type generateTokensResponse struct {
	PollID uuid.UUID `json:"poll_public_id"`
	Tokens []string  `json:"tokens"`
}

func (h *TokenHandler) GenerateTokens(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid poll id", http.StatusBadRequest)
		return
	}

	var req generateTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Count <= 0 {
		http.Error(w, "a positive token count is required", http.StatusBadRequest)
		return
	}

	tokens, err := h.service.GenerateTokens(r.Context(), pollID, req.Count)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPollNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrPollNotRestricted):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(generateTokensResponse{PollID: pollID, Tokens: tokens}); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

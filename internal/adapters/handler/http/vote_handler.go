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

type VoteHandler struct {
	service ports.VoteService
}

func NewVoteHandler(service ports.VoteService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type voteRequest struct {
	ChoiceID   uuid.UUID `json:"choice_id"`
	VoterToken string    `json:"voter_token"`
}

type voteResponse struct {
	PollID uuid.UUID       `json:"poll_id"`
	Votes  domain.Snapshot `json:"votes"`
}

func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid poll id", http.StatusBadRequest)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := ports.CastVoteInput{
		PollPublicID: pollID,
		ChoiceID:     req.ChoiceID,
		Token:        req.VoterToken,
		UserID:       userIDFromContext(r.Context()),
	}

	snapshot, err := h.service.Cast(r.Context(), input)
	if err != nil {
		// Client errors stay distinguishable so the UI can show
		// different messages for each rejection.
		switch {
		case errors.Is(err, domain.ErrPollNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidChoice), errors.Is(err, domain.ErrMissingToken):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrPollClosed), errors.Is(err, domain.ErrNotAuthorized):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, domain.ErrAlreadyVoted):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(voteResponse{PollID: pollID, Votes: snapshot}); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *VoteHandler) GetTally(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid poll id", http.StatusBadRequest)
		return
	}

	snapshot, err := h.service.CurrentTally(r.Context(), pollID)
	if err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(voteResponse{PollID: pollID, Votes: snapshot}); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

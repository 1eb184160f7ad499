package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
)

type PollHandler struct {
	pollRepo    ports.PollRepository
	finalizeSvc ports.FinalizeService
}

func NewPollHandler(pollRepo ports.PollRepository, finalizeSvc ports.FinalizeService) *PollHandler {
	return &PollHandler{
		pollRepo:    pollRepo,
		finalizeSvc: finalizeSvc,
	}
}

type pollResponse struct {
	*domain.Poll
	Status domain.PollStatus `json:"status"`
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid poll id", http.StatusBadRequest)
		return
	}

	poll, err := h.pollRepo.GetByPublicID(r.Context(), pollID)
	if err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Status in responses is always freshly derived, never the stored
	// hint.
	resp := pollResponse{Poll: poll, Status: poll.Status(time.Now())}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *PollHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid poll id", http.StatusBadRequest)
		return
	}

	result, err := h.finalizeSvc.Finalize(r.Context(), pollID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPollNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrPollStillOpen):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrAlreadyFinalized):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// GetResult serves the immutable record once finalized and falls back
// to a 404 with a hint while the poll is still live.
func (h *PollHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid poll id", http.StatusBadRequest)
		return
	}

	result, err := h.finalizeSvc.GetResult(r.Context(), pollID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPollNotFound), errors.Is(err, domain.ErrResultNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

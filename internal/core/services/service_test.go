package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
)

// fakePollRepo serves poll metadata from memory; the CRUD collaborator
// that owns this data is out of scope here.
type fakePollRepo struct {
	polls map[uuid.UUID]*domain.Poll
}

func newFakePollRepo(polls ...*domain.Poll) *fakePollRepo {
	repo := &fakePollRepo{polls: make(map[uuid.UUID]*domain.Poll)}
	for _, p := range polls {
		repo.polls[p.PublicID] = p
	}
	return repo
}

func (r *fakePollRepo) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*domain.Poll, error) {
	poll, ok := r.polls[publicID]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return poll, nil
}

func (r *fakePollRepo) ListClosedUnfinalized(ctx context.Context) ([]*domain.Poll, error) {
	var closed []*domain.Poll
	for _, p := range r.polls {
		if p.Status(time.Now()) == domain.StatusClosed {
			closed = append(closed, p)
		}
	}
	return closed, nil
}

func openPoll(mode domain.VotingMode, choices int) *domain.Poll {
	return pollWithWindow(mode, choices, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
}

func closedPoll(mode domain.VotingMode, choices int) *domain.Poll {
	return pollWithWindow(mode, choices, time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour))
}

func pollWithWindow(mode domain.VotingMode, choices int, start, end time.Time) *domain.Poll {
	pollID := uuid.New()
	poll := &domain.Poll{
		PublicID:  pollID,
		Title:     "test poll",
		Published: true,
		StartsAt:  start,
		EndsAt:    end,
		Mode:      mode,
	}
	for i := 0; i < choices; i++ {
		poll.Choices = append(poll.Choices, domain.Choice{
			ID:        uuid.New(),
			PollID:    pollID,
			SortOrder: i,
		})
	}
	return poll
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
)

// PollRepository reads poll metadata written by the CRUD side.
type PollRepository interface {
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (*domain.Poll, error)

	// ListClosedUnfinalized returns published polls whose window has
	// ended but for which no PollResult exists yet.
	ListClosedUnfinalized(ctx context.Context) ([]*domain.Poll, error)
}

// PollResultRepository is the durable side of the finalization
// boundary. Create must be atomic and first-writer-wins: concurrent
// calls for the same poll produce exactly one record, losers get
// domain.ErrAlreadyFinalized.
type PollResultRepository interface {
	Create(ctx context.Context, result *domain.PollResult) error
	GetByPollID(ctx context.Context, pollID uuid.UUID) (*domain.PollResult, error)
}

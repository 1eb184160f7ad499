package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
)

type CastVoteInput struct {
	PollPublicID uuid.UUID
	ChoiceID     uuid.UUID

	// Token is the caller-supplied voter token. When empty and UserID
	// is set, the service derives "user:<id>". An explicit token takes
	// precedence over the derived one.
	Token  string
	UserID *uuid.UUID
}

// VoteService is the vote casting protocol: lifecycle gate, choice
// validation, token resolution, atomic record, broadcast.
type VoteService interface {
	Cast(ctx context.Context, input CastVoteInput) (domain.Snapshot, error)

	// CurrentTally returns the live snapshot of an existing poll, or
	// the finalized counts once a PollResult exists.
	CurrentTally(ctx context.Context, pollPublicID uuid.UUID) (domain.Snapshot, error)
}

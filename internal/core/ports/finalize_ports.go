package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
)

// FinalizeService is the one-time handoff of a closed poll's volatile
// tally into its durable result.
type FinalizeService interface {
	// Finalize fails with domain.ErrPollStillOpen while the poll is not
	// closed and domain.ErrAlreadyFinalized once a result exists.
	Finalize(ctx context.Context, pollPublicID uuid.UUID) (*domain.PollResult, error)

	// FinalizeClosedPolls sweeps every closed, unfinalized poll. Races
	// between sweepers are resolved by Finalize itself.
	FinalizeClosedPolls(ctx context.Context) error

	GetResult(ctx context.Context, pollPublicID uuid.UUID) (*domain.PollResult, error)
}

// TokenService provisions voter tokens for restricted polls.
type TokenService interface {
	// GenerateTokens mints count fresh tokens, seeds them into the
	// poll's allow-list and returns the plaintext values for
	// distribution.
	GenerateTokens(ctx context.Context, pollPublicID uuid.UUID, count int) ([]string, error)
}

package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
)

// TallyStore owns the live counts and voter dedup sets for open polls.
// Implementations must make RecordVote atomic: the membership check,
// the set insert and the counter increment are indivisible with respect
// to concurrent callers using the same token.
type TallyStore interface {
	// RecordVote credits one vote to choiceID if the token is eligible.
	// Returns domain.ErrAlreadyVoted when the token was already spent
	// and, in restricted mode, domain.ErrNotAuthorized when the token
	// is not on the allow-list. State is never partially applied.
	RecordVote(ctx context.Context, pollID, choiceID uuid.UUID, token string, mode domain.VotingMode) error

	// Snapshot returns a point-in-time copy of all counts for a poll.
	// Polls with no recorded votes yield an empty snapshot.
	Snapshot(ctx context.Context, pollID uuid.UUID) (domain.Snapshot, error)

	// SeedAllowedTokens bulk-adds tokens to a restricted poll's
	// allow-list. Idempotent: reseeding an existing token is a no-op.
	SeedAllowedTokens(ctx context.Context, pollID uuid.UUID, tokens []string) error

	// Retire evicts the live state of a finalized poll. Best-effort;
	// the durable result is authoritative by the time this is called.
	Retire(ctx context.Context, pollID uuid.UUID) error
}

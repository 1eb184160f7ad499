package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
)

type voteService struct {
	pollRepo    ports.PollRepository
	resultRepo  ports.PollResultRepository
	tally       ports.TallyStore
	broadcaster ports.Broadcaster
	now         func() time.Time
	logger      zerolog.Logger
}

func NewVoteService(
	pollRepo ports.PollRepository,
	resultRepo ports.PollResultRepository,
	tally ports.TallyStore,
	broadcaster ports.Broadcaster,
	logger zerolog.Logger,
) ports.VoteService {
	return &voteService{
		pollRepo:    pollRepo,
		resultRepo:  resultRepo,
		tally:       tally,
		broadcaster: broadcaster,
		now:         time.Now,
		logger:      logger.With().Str("service", "vote").Logger(),
	}
}

func (s *voteService) Cast(ctx context.Context, input ports.CastVoteInput) (domain.Snapshot, error) {
	poll, err := s.pollRepo.GetByPublicID(ctx, input.PollPublicID)
	if err != nil {
		return nil, err
	}

	// Admission is decided from the clock, never from a stored status.
	if !poll.IsOpen(s.now()) {
		return nil, domain.ErrPollClosed
	}

	if !poll.HasChoice(input.ChoiceID) {
		return nil, domain.ErrInvalidChoice
	}

	token := resolveToken(input)
	if token == "" {
		return nil, domain.ErrMissingToken
	}

	if err := s.tally.RecordVote(ctx, poll.PublicID, input.ChoiceID, token, poll.Mode); err != nil {
		return nil, err
	}

	snapshot, err := s.tally.Snapshot(ctx, poll.PublicID)
	if err != nil {
		// The vote is already recorded; report it accepted and let the
		// caller re-read the tally.
		s.logger.Warn().Err(err).Stringer("poll_id", poll.PublicID).Msg("snapshot read after accepted vote failed")
		return domain.Snapshot{}, nil
	}

	s.broadcaster.Publish(domain.TallyUpdate{PollID: poll.PublicID, Votes: snapshot})

	return snapshot, nil
}

func (s *voteService) CurrentTally(ctx context.Context, pollPublicID uuid.UUID) (domain.Snapshot, error) {
	poll, err := s.pollRepo.GetByPublicID(ctx, pollPublicID)
	if err != nil {
		return nil, err
	}

	// Once finalized, the durable record is authoritative; the live
	// tally may already be retired.
	result, err := s.resultRepo.GetByPollID(ctx, poll.PublicID)
	if err == nil {
		return result.Results, nil
	}
	if !errors.Is(err, domain.ErrResultNotFound) {
		return nil, fmt.Errorf("failed to check poll result: %w", err)
	}

	return s.tally.Snapshot(ctx, poll.PublicID)
}

// resolveToken applies the token precedence rule: an explicit token
// wins; the identity-derived token is a fallback for authenticated
// callers only.
func resolveToken(input ports.CastVoteInput) string {
	if input.Token != "" {
		return input.Token
	}
	if input.UserID != nil {
		return "user:" + input.UserID.String()
	}
	return ""
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
)

type finalizeService struct {
	pollRepo   ports.PollRepository
	resultRepo ports.PollResultRepository
	tally      ports.TallyStore
	now        func() time.Time
	logger     zerolog.Logger
}

func NewFinalizeService(
	pollRepo ports.PollRepository,
	resultRepo ports.PollResultRepository,
	tally ports.TallyStore,
	logger zerolog.Logger,
) ports.FinalizeService {
	return &finalizeService{
		pollRepo:   pollRepo,
		resultRepo: resultRepo,
		tally:      tally,
		now:        time.Now,
		logger:     logger.With().Str("service", "finalize").Logger(),
	}
}

// Finalize moves a closed poll's tally into its immutable durable
// record. The result repository's first-writer-wins Create is the only
// guard needed against concurrent finalize attempts.
func (s *finalizeService) Finalize(ctx context.Context, pollPublicID uuid.UUID) (*domain.PollResult, error) {
	poll, err := s.pollRepo.GetByPublicID(ctx, pollPublicID)
	if err != nil {
		return nil, err
	}

	if poll.Status(s.now()) != domain.StatusClosed {
		return nil, domain.ErrPollStillOpen
	}

	snapshot, err := s.tally.Snapshot(ctx, poll.PublicID)
	if err != nil {
		return nil, fmt.Errorf("failed to read tally for finalization: %w", err)
	}

	result := &domain.PollResult{
		PollID:      poll.PublicID,
		Results:     snapshot,
		TotalVotes:  snapshot.Total(),
		FinalizedAt: s.now().UTC(),
	}

	if err := s.resultRepo.Create(ctx, result); err != nil {
		return nil, err
	}

	// The durable record is now authoritative; eviction of the live
	// tally is an optimization and must not fail the finalization.
	if err := s.tally.Retire(ctx, poll.PublicID); err != nil {
		s.logger.Warn().Err(err).Stringer("poll_id", poll.PublicID).Msg("failed to retire live tally")
	}

	s.logger.Info().
		Stringer("poll_id", poll.PublicID).
		Int64("total_votes", result.TotalVotes).
		Msg("poll finalized")

	return result, nil
}

// FinalizeClosedPolls is the reactive lifecycle observer: it sweeps
// polls whose window has ended and finalizes each. A poll finalized by
// a concurrent sweeper is skipped, not an error.
func (s *finalizeService) FinalizeClosedPolls(ctx context.Context) error {
	polls, err := s.pollRepo.ListClosedUnfinalized(ctx)
	if err != nil {
		return fmt.Errorf("failed to list closed polls: %w", err)
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(polls))

	for _, poll := range polls {
		wg.Add(1)
		go func(publicID uuid.UUID) {
			defer wg.Done()
			if _, err := s.Finalize(ctx, publicID); err != nil {
				if errors.Is(err, domain.ErrAlreadyFinalized) || errors.Is(err, domain.ErrPollStillOpen) {
					return
				}
				errChan <- fmt.Errorf("failed to finalize poll %s: %w", publicID, err)
			}
		}(poll.PublicID)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *finalizeService) GetResult(ctx context.Context, pollPublicID uuid.UUID) (*domain.PollResult, error) {
	poll, err := s.pollRepo.GetByPublicID(ctx, pollPublicID)
	if err != nil {
		return nil, err
	}
	return s.resultRepo.GetByPollID(ctx, poll.PublicID)
}

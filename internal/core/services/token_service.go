package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
)

// tokenBytes gives 128 bits of entropy per voter token.
const tokenBytes = 16

type tokenService struct {
	pollRepo ports.PollRepository
	tally    ports.TallyStore
	logger   zerolog.Logger
}

func NewTokenService(pollRepo ports.PollRepository, tally ports.TallyStore, logger zerolog.Logger) ports.TokenService {
	return &tokenService{
		pollRepo: pollRepo,
		tally:    tally,
		logger:   logger.With().Str("service", "token").Logger(),
	}
}

func (s *tokenService) GenerateTokens(ctx context.Context, pollPublicID uuid.UUID, count int) ([]string, error) {
	if count <= 0 {
		return nil, errors.New("token count must be positive")
	}

	poll, err := s.pollRepo.GetByPublicID(ctx, pollPublicID)
	if err != nil {
		return nil, err
	}
	if poll.Mode != domain.VotingModeRestricted {
		return nil, domain.ErrPollNotRestricted
	}

	tokens := make([]string, count)
	for i := range tokens {
		token, err := randomToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}
		tokens[i] = token
	}

	if err := s.tally.SeedAllowedTokens(ctx, poll.PublicID, tokens); err != nil {
		return nil, fmt.Errorf("failed to seed allowed tokens: %w", err)
	}

	s.logger.Info().Stringer("poll_id", poll.PublicID).Int("count", count).Msg("voter tokens issued")

	return tokens, nil
}

func randomToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
)

type resultStore struct {
	mu      sync.Mutex
	results map[uuid.UUID]*domain.PollResult
}

// NewResultStore returns an in-process PollResultRepository, used in
// tests and single-node deployments without a database.
func NewResultStore() ports.PollResultRepository {
	return &resultStore{
		results: make(map[uuid.UUID]*domain.PollResult),
	}
}

func (s *resultStore) Create(ctx context.Context, result *domain.PollResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.results[result.PollID]; ok {
		return domain.ErrAlreadyFinalized
	}

	stored := *result
	if stored.FinalizedAt.IsZero() {
		stored.FinalizedAt = time.Now().UTC()
	}
	stored.Results = make(domain.Snapshot, len(result.Results))
	for choiceID, count := range result.Results {
		stored.Results[choiceID] = count
	}
	s.results[result.PollID] = &stored
	return nil
}

func (s *resultStore) GetByPollID(ctx context.Context, pollID uuid.UUID) (*domain.PollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, ok := s.results[pollID]
	if !ok {
		return nil, domain.ErrResultNotFound
	}

	copied := *result
	copied.Results = make(domain.Snapshot, len(result.Results))
	for choiceID, count := range result.Results {
		copied.Results[choiceID] = count
	}
	return &copied, nil
}

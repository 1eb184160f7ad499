package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
)

// pollTally is the live state of one poll. Its mutex serializes the
// check-and-increment for that poll only, so polls never contend with
// each other.
type pollTally struct {
	mu      sync.Mutex
	counts  map[uuid.UUID]int64
	voted   map[string]struct{}
	allowed map[string]struct{}
	used    map[string]struct{}
}

type tallyStore struct {
	mu      sync.RWMutex
	tallies map[uuid.UUID]*pollTally
}

// NewTallyStore returns an in-process TallyStore.
func NewTallyStore() ports.TallyStore {
	return &tallyStore{
		tallies: make(map[uuid.UUID]*pollTally),
	}
}

func (s *tallyStore) tally(pollID uuid.UUID) *pollTally {
	s.mu.RLock()
	t, ok := s.tallies[pollID]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tallies[pollID]; ok {
		return t
	}
	t = &pollTally{
		counts:  make(map[uuid.UUID]int64),
		voted:   make(map[string]struct{}),
		allowed: make(map[string]struct{}),
		used:    make(map[string]struct{}),
	}
	s.tallies[pollID] = t
	return t
}

func (s *tallyStore) RecordVote(ctx context.Context, pollID, choiceID uuid.UUID, token string, mode domain.VotingMode) error {
	t := s.tally(pollID)

	t.mu.Lock()
	defer t.mu.Unlock()

	switch mode {
	case domain.VotingModeRestricted:
		if _, ok := t.allowed[token]; !ok {
			return domain.ErrNotAuthorized
		}
		if _, ok := t.used[token]; ok {
			return domain.ErrAlreadyVoted
		}
		t.used[token] = struct{}{}
	default:
		if _, ok := t.voted[token]; ok {
			return domain.ErrAlreadyVoted
		}
		t.voted[token] = struct{}{}
	}

	t.counts[choiceID]++
	return nil
}

func (s *tallyStore) Snapshot(ctx context.Context, pollID uuid.UUID) (domain.Snapshot, error) {
	t := s.tally(pollID)

	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := make(domain.Snapshot, len(t.counts))
	for choiceID, count := range t.counts {
		snapshot[choiceID] = count
	}
	return snapshot, nil
}

func (s *tallyStore) SeedAllowedTokens(ctx context.Context, pollID uuid.UUID, tokens []string) error {
	t := s.tally(pollID)

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, token := range tokens {
		t.allowed[token] = struct{}{}
	}
	return nil
}

func (s *tallyStore) Retire(ctx context.Context, pollID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tallies, pollID)
	return nil
}

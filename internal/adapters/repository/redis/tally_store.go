package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
)

const (
	voteNotAuthorized = -1
	voteAlreadyCast   = 0
	voteAccepted      = 1
)

// recordOpenVote: KEYS[1]=voters set, KEYS[2]=votes hash,
// ARGV[1]=token, ARGV[2]=choice id. The script runs atomically on the
// server, so the membership check and the increment cannot interleave
// with another vote for the same poll.
var recordOpenVote = redis.NewScript(`
if redis.call("SISMEMBER", KEYS[1], ARGV[1]) == 1 then
  return 0
end
redis.call("SADD", KEYS[1], ARGV[1])
redis.call("HINCRBY", KEYS[2], ARGV[2], 1)
return 1
`)

// recordRestrictedVote: KEYS[1]=allowed set, KEYS[2]=used set,
// KEYS[3]=votes hash, ARGV[1]=token, ARGV[2]=choice id.
var recordRestrictedVote = redis.NewScript(`
if redis.call("SISMEMBER", KEYS[1], ARGV[1]) == 0 then
  return -1
end
if redis.call("SISMEMBER", KEYS[2], ARGV[1]) == 1 then
  return 0
end
redis.call("SADD", KEYS[2], ARGV[1])
redis.call("HINCRBY", KEYS[3], ARGV[2], 1)
return 1
`)

type tallyStore struct {
	client *redis.Client
}

// NewTallyStore returns a TallyStore backed by Redis, for deployments
// where several server instances share one live tally.
func NewTallyStore(client *redis.Client) ports.TallyStore {
	return &tallyStore{client: client}
}

func votesKey(pollID uuid.UUID) string   { return fmt.Sprintf("poll:%s:votes", pollID) }
func votersKey(pollID uuid.UUID) string  { return fmt.Sprintf("poll:%s:voters", pollID) }
func allowedKey(pollID uuid.UUID) string { return fmt.Sprintf("poll:%s:allowed_tokens", pollID) }
func usedKey(pollID uuid.UUID) string    { return fmt.Sprintf("poll:%s:used_tokens", pollID) }

func (s *tallyStore) RecordVote(ctx context.Context, pollID, choiceID uuid.UUID, token string, mode domain.VotingMode) error {
	var (
		result int
		err    error
	)

	if mode == domain.VotingModeRestricted {
		keys := []string{allowedKey(pollID), usedKey(pollID), votesKey(pollID)}
		result, err = recordRestrictedVote.Run(ctx, s.client, keys, token, choiceID.String()).Int()
	} else {
		keys := []string{votersKey(pollID), votesKey(pollID)}
		result, err = recordOpenVote.Run(ctx, s.client, keys, token, choiceID.String()).Int()
	}
	if err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}

	switch result {
	case voteAccepted:
		return nil
	case voteAlreadyCast:
		return domain.ErrAlreadyVoted
	case voteNotAuthorized:
		return domain.ErrNotAuthorized
	default:
		return fmt.Errorf("unexpected vote script result: %d", result)
	}
}

func (s *tallyStore) Snapshot(ctx context.Context, pollID uuid.UUID) (domain.Snapshot, error) {
	raw, err := s.client.HGetAll(ctx, votesKey(pollID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read tally: %w", err)
	}

	snapshot := make(domain.Snapshot, len(raw))
	for field, value := range raw {
		choiceID, err := uuid.Parse(field)
		if err != nil {
			return nil, fmt.Errorf("malformed choice id %q in tally: %w", field, err)
		}
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed count for choice %s: %w", field, err)
		}
		snapshot[choiceID] = count
	}
	return snapshot, nil
}

func (s *tallyStore) SeedAllowedTokens(ctx context.Context, pollID uuid.UUID, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	members := make([]interface{}, len(tokens))
	for i, token := range tokens {
		members[i] = token
	}

	if err := s.client.SAdd(ctx, allowedKey(pollID), members...).Err(); err != nil {
		return fmt.Errorf("failed to seed allowed tokens: %w", err)
	}
	return nil
}

func (s *tallyStore) Retire(ctx context.Context, pollID uuid.UUID) error {
	keys := []string{votesKey(pollID), votersKey(pollID), allowedKey(pollID), usedKey(pollID)}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to retire tally: %w", err)
	}
	return nil
}

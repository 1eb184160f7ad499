package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/livetally/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
)

func TestGenerateTokensSeedsAllowList(t *testing.T) {
	ctx := context.Background()
	poll := openPoll(domain.VotingModeRestricted, 2)
	tally := memory.NewTallyStore()
	svc := NewTokenService(newFakePollRepo(poll), tally, testLogger())

	tokens, err := svc.GenerateTokens(ctx, poll.PublicID, 5)
	require.NoError(t, err)
	require.Len(t, tokens, 5)

	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		assert.NotEmpty(t, token)
		_, dup := seen[token]
		assert.False(t, dup, "duplicate token issued")
		seen[token] = struct{}{}

		// Every issued token can vote exactly once.
		err := tally.RecordVote(ctx, poll.PublicID, poll.Choices[0].ID, token, domain.VotingModeRestricted)
		assert.NoError(t, err)
	}

	snapshot, err := tally.Snapshot(ctx, poll.PublicID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), snapshot[poll.Choices[0].ID])
}

func TestGenerateTokensRejectsOpenModePoll(t *testing.T) {
	ctx := context.Background()
	poll := openPoll(domain.VotingModeOpen, 2)
	svc := NewTokenService(newFakePollRepo(poll), memory.NewTallyStore(), testLogger())

	_, err := svc.GenerateTokens(ctx, poll.PublicID, 3)
	assert.ErrorIs(t, err, domain.ErrPollNotRestricted)
}

func TestGenerateTokensRejectsInvalidCount(t *testing.T) {
	ctx := context.Background()
	poll := openPoll(domain.VotingModeRestricted, 2)
	svc := NewTokenService(newFakePollRepo(poll), memory.NewTallyStore(), testLogger())

	for _, count := range []int{0, -1} {
		_, err := svc.GenerateTokens(ctx, poll.PublicID, count)
		assert.Error(t, err)
	}
}

func TestGenerateTokensUnknownPoll(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(newFakePollRepo(), memory.NewTallyStore(), testLogger())

	_, err := svc.GenerateTokens(ctx, openPoll(domain.VotingModeRestricted, 1).PublicID, 3)
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}

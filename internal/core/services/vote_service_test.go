package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/livetally/internal/adapters/broadcast"
	"github.com/vncsmyrnk/livetally/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
)

func newVoteFixture(polls ...*domain.Poll) (ports.VoteService, *broadcast.Hub, ports.TallyStore) {
	hub := broadcast.NewHub()
	tally := memory.NewTallyStore()
	svc := NewVoteService(newFakePollRepo(polls...), memory.NewResultStore(), tally, hub, testLogger())
	return svc, hub, tally
}

func TestCastAcceptsAndReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	poll := openPoll(domain.VotingModeOpen, 2)
	svc, _, _ := newVoteFixture(poll)

	snapshot, err := svc.Cast(ctx, ports.CastVoteInput{
		PollPublicID: poll.PublicID,
		ChoiceID:     poll.Choices[0].ID,
		Token:        "t1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot[poll.Choices[0].ID])
	assert.Zero(t, snapshot[poll.Choices[1].ID])
}

func TestCastRejectsDuplicateToken(t *testing.T) {
	ctx := context.Background()
	poll := openPoll(domain.VotingModeOpen, 2)
	svc, _, _ := newVoteFixture(poll)

	input := ports.CastVoteInput{PollPublicID: poll.PublicID, ChoiceID: poll.Choices[0].ID, Token: "t1"}
	_, err := svc.Cast(ctx, input)
	require.NoError(t, err)

	// Same token again, even for another choice.
	input.ChoiceID = poll.Choices[1].ID
	_, err = svc.Cast(ctx, input)
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	snapshot, err := svc.CurrentTally(ctx, poll.PublicID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot.Total())
}

func TestCastErrorPaths(t *testing.T) {
	ctx := context.Background()
	open := openPoll(domain.VotingModeOpen, 2)
	closed := closedPoll(domain.VotingModeOpen, 2)
	scheduled := pollWithWindow(domain.VotingModeOpen, 2, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	svc, _, _ := newVoteFixture(open, closed, scheduled)

	tests := []struct {
		name  string
		input ports.CastVoteInput
		want  error
	}{
		{
			"unknown poll",
			ports.CastVoteInput{PollPublicID: uuid.New(), ChoiceID: open.Choices[0].ID, Token: "t"},
			domain.ErrPollNotFound,
		},
		{
			"closed poll",
			ports.CastVoteInput{PollPublicID: closed.PublicID, ChoiceID: closed.Choices[0].ID, Token: "t"},
			domain.ErrPollClosed,
		},
		{
			"scheduled poll",
			ports.CastVoteInput{PollPublicID: scheduled.PublicID, ChoiceID: scheduled.Choices[0].ID, Token: "t"},
			domain.ErrPollClosed,
		},
		{
			"choice from another poll",
			ports.CastVoteInput{PollPublicID: open.PublicID, ChoiceID: closed.Choices[0].ID, Token: "t"},
			domain.ErrInvalidChoice,
		},
		{
			"missing token",
			ports.CastVoteInput{PollPublicID: open.PublicID, ChoiceID: open.Choices[0].ID},
			domain.ErrMissingToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Cast(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCastDerivesTokenFromIdentity(t *testing.T) {
	ctx := context.Background()
	poll := openPoll(domain.VotingModeOpen, 2)
	svc, _, _ := newVoteFixture(poll)
	userID := uuid.New()

	_, err := svc.Cast(ctx, ports.CastVoteInput{
		PollPublicID: poll.PublicID,
		ChoiceID:     poll.Choices[0].ID,
		UserID:       &userID,
	})
	require.NoError(t, err)

	// The derived token dedups like any other.
	_, err = svc.Cast(ctx, ports.CastVoteInput{
		PollPublicID: poll.PublicID,
		ChoiceID:     poll.Choices[1].ID,
		UserID:       &userID,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
}

func TestCastExplicitTokenTakesPrecedence(t *testing.T) {
	ctx := context.Background()
	poll := openPoll(domain.VotingModeOpen, 2)
	svc, _, _ := newVoteFixture(poll)
	userID := uuid.New()

	_, err := svc.Cast(ctx, ports.CastVoteInput{
		PollPublicID: poll.PublicID,
		ChoiceID:     poll.Choices[0].ID,
		Token:        "explicit",
		UserID:       &userID,
	})
	require.NoError(t, err)

	// The identity-derived token was not consumed.
	_, err = svc.Cast(ctx, ports.CastVoteInput{
		PollPublicID: poll.PublicID,
		ChoiceID:     poll.Choices[0].ID,
		UserID:       &userID,
	})
	require.NoError(t, err)
}

func TestCastRestrictedMode(t *testing.T) {
	ctx := context.Background()
	poll := openPoll(domain.VotingModeRestricted, 2)
	svc, _, tally := newVoteFixture(poll)

	require.NoError(t, tally.SeedAllowedTokens(ctx, poll.PublicID, []string{"t1", "t2"}))

	input := ports.CastVoteInput{PollPublicID: poll.PublicID, ChoiceID: poll.Choices[0].ID, Token: "t3"}
	_, err := svc.Cast(ctx, input)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	input.Token = "t1"
	_, err = svc.Cast(ctx, input)
	require.NoError(t, err)

	_, err = svc.Cast(ctx, input)
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
}

func TestCastPublishesToSubscribers(t *testing.T) {
	ctx := context.Background()
	poll := openPoll(domain.VotingModeOpen, 2)
	svc, hub, _ := newVoteFixture(poll)

	sub := hub.Subscribe(poll.PublicID)
	defer sub.Close()

	_, err := svc.Cast(ctx, ports.CastVoteInput{
		PollPublicID: poll.PublicID,
		ChoiceID:     poll.Choices[0].ID,
		Token:        "t1",
	})
	require.NoError(t, err)

	select {
	case update := <-sub.Updates():
		assert.Equal(t, poll.PublicID, update.PollID)
		assert.Equal(t, int64(1), update.Votes[poll.Choices[0].ID])
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}
}

// TestCastConcurrentSameToken: exactly one acceptance, one increment,
// no matter how many goroutines race with the same token.
func TestCastConcurrentSameToken(t *testing.T) {
	ctx := context.Background()
	poll := openPoll(domain.VotingModeOpen, 2)
	svc, _, _ := newVoteFixture(poll)

	const attempts = 50
	var accepted atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Cast(ctx, ports.CastVoteInput{
				PollPublicID: poll.PublicID,
				ChoiceID:     poll.Choices[0].ID,
				Token:        "contended",
			})
			if err == nil {
				accepted.Add(1)
			} else if err != domain.ErrAlreadyVoted {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())

	snapshot, err := svc.CurrentTally(ctx, poll.PublicID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot.Total())
}

// TestCastConcurrentDistinctTokens: 100 parallel voters all land.
func TestCastConcurrentDistinctTokens(t *testing.T) {
	ctx := context.Background()
	poll := openPoll(domain.VotingModeOpen, 2)
	svc, _, _ := newVoteFixture(poll)

	const voters = 100
	var wg sync.WaitGroup

	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Cast(ctx, ports.CastVoteInput{
				PollPublicID: poll.PublicID,
				ChoiceID:     poll.Choices[0].ID,
				Token:        fmt.Sprintf("voter-%d", n),
			})
			if err != nil {
				t.Errorf("vote %d failed: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	snapshot, err := svc.CurrentTally(ctx, poll.PublicID)
	require.NoError(t, err)
	assert.Equal(t, int64(voters), snapshot[poll.Choices[0].ID])
}

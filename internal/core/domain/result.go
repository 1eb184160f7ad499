package domain

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is a full point-in-time copy of a poll's per-choice counts.
// Broadcast frames and API responses always carry whole snapshots,
// never deltas, so a dropped frame costs nothing.
type Snapshot map[uuid.UUID]int64

// Total sums all per-choice counts.
func (s Snapshot) Total() int64 {
	var total int64
	for _, n := range s {
		total += n
	}
	return total
}

// TallyUpdate is the event pushed to live subscribers of a poll after
// every accepted vote.
type TallyUpdate struct {
	PollID uuid.UUID `json:"poll_id"`
	Votes  Snapshot  `json:"votes"`
}

// PollResult is the immutable durable record created exactly once when
// a closed poll is finalized.
type PollResult struct {
	PollID      uuid.UUID `json:"poll_id"`
	Results     Snapshot  `json:"results"`
	TotalVotes  int64     `json:"total_votes"`
	FinalizedAt time.Time `json:"finalized_at"`
}

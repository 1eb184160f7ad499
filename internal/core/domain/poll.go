package domain

import (
	"time"

	"github.com/google/uuid"
)

type VotingMode string

const (
	VotingModeOpen       VotingMode = "open"
	VotingModeRestricted VotingMode = "restricted"
)

type PollStatus string

const (
	StatusDraft     PollStatus = "draft"
	StatusScheduled PollStatus = "scheduled"
	StatusOpen      PollStatus = "open"
	StatusClosed    PollStatus = "closed"
)

// Poll metadata is owned by the CRUD side of the system; this core only
// reads it. PublicID is the shareable identifier, deliberately not a
// sequential integer so polls cannot be enumerated.
type Poll struct {
	PublicID  uuid.UUID  `json:"public_id"`
	Title     string     `json:"title"`
	Published bool       `json:"published"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    time.Time  `json:"ends_at"`
	Mode      VotingMode `json:"voting_mode"`
	Choices   []Choice   `json:"choices"`

	// CachedStatus is whatever the last writer stored. It is a display
	// hint only; voting and finalization decisions always go through
	// Status with a fresh clock reading.
	CachedStatus PollStatus `json:"-"`
}

type Choice struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"poll_id"`
	Text      string    `json:"text"`
	SortOrder int       `json:"order"`
}

// Status derives the poll lifecycle state from its time window. It is a
// pure function of (poll, now) and never consults CachedStatus.
func (p *Poll) Status(now time.Time) PollStatus {
	if !p.Published {
		return StatusDraft
	}
	switch {
	case now.Before(p.StartsAt):
		return StatusScheduled
	case now.Before(p.EndsAt):
		return StatusOpen
	default:
		return StatusClosed
	}
}

// IsOpen reports whether votes are admissible at the given instant.
func (p *Poll) IsOpen(now time.Time) bool {
	return p.Status(now) == StatusOpen
}

// HasChoice reports whether the given choice id belongs to this poll.
func (p *Poll) HasChoice(choiceID uuid.UUID) bool {
	for _, c := range p.Choices {
		if c.ID == choiceID {
			return true
		}
	}
	return false
}

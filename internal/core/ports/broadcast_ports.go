package ports

import (
	"github.com/google/uuid"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
)

// Subscription is one live observer of a poll. Updates carries full
// tally snapshots; the channel is closed when the subscription ends.
type Subscription interface {
	Updates() <-chan domain.TallyUpdate
	Close()
}

// Broadcaster fans tally updates out to all subscribers of a poll.
// Publish is best-effort: a slow or gone subscriber never blocks the
// caller or delivery to other subscribers.
type Broadcaster interface {
	Subscribe(pollID uuid.UUID) Subscription
	Publish(update domain.TallyUpdate)
}

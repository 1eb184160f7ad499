package broadcast

import (
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
)

// subscriberBuffer bounds how many undelivered snapshots a slow client
// may hold. Frames are full snapshots, so dropping one loses nothing
// the next frame does not carry.
const subscriberBuffer = 16

type subscriber struct {
	pollID  uuid.UUID
	updates chan domain.TallyUpdate
	hub     *Hub
	once    sync.Once
}

func (s *subscriber) Updates() <-chan domain.TallyUpdate {
	return s.updates
}

func (s *subscriber) Close() {
	s.hub.unsubscribe(s)
}

// Hub keeps one subscriber group per poll and pushes tally snapshots
// to every member after each accepted vote.
type Hub struct {
	mu     sync.RWMutex
	groups map[uuid.UUID]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{
		groups: make(map[uuid.UUID]map[*subscriber]struct{}),
	}
}

var _ ports.Broadcaster = (*Hub)(nil)

func (h *Hub) Subscribe(pollID uuid.UUID) ports.Subscription {
	sub := &subscriber{
		pollID:  pollID,
		updates: make(chan domain.TallyUpdate, subscriberBuffer),
		hub:     h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.groups[pollID]
	if !ok {
		group = make(map[*subscriber]struct{})
		h.groups[pollID] = group
	}
	group[sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	if group, ok := h.groups[sub.pollID]; ok {
		delete(group, sub)
		if len(group) == 0 {
			delete(h.groups, sub.pollID)
		}
	}
	h.mu.Unlock()

	sub.once.Do(func() {
		close(sub.updates)
	})
}

// Publish delivers the update to every current subscriber of the poll.
// Delivery is non-blocking per subscriber: a full buffer drops the
// frame rather than stalling the vote path.
func (h *Hub) Publish(update domain.TallyUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.groups[update.PollID] {
		select {
		case sub.updates <- update:
		default:
		}
	}
}

// SubscriberCount reports the current group size for a poll.
func (h *Hub) SubscriberCount(pollID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[pollID])
}

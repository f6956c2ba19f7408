package realtime

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

const subscriberBuffer = 64

// Hub is an in-process broker: rooms keyed by conversation id, one buffered
// channel per subscriber. Publish order is delivery order, which matches
// commit order on a single node. Slow subscribers are dropped rather than
// allowed to block the fan-out.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*hubSub]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*hubSub]struct{})}
}

type hubSub struct {
	hub            *Hub
	conversationID string
	events         chan Event
	once           sync.Once
}

func (s *hubSub) Events() <-chan Event { return s.events }

func (s *hubSub) Close() error {
	s.once.Do(func() {
		s.hub.detach(s)
		close(s.events)
	})
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, conversationID string) (Subscription, error) {
	_ = ctx
	sub := &hubSub{
		hub:            h,
		conversationID: conversationID,
		events:         make(chan Event, subscriberBuffer),
	}
	h.mu.Lock()
	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[*hubSub]struct{})
		h.rooms[conversationID] = room
	}
	room[sub] = struct{}{}
	h.mu.Unlock()
	return sub, nil
}

func (h *Hub) Publish(ctx context.Context, ev Event) error {
	_ = ctx
	h.mu.RLock()
	room := h.rooms[ev.ConversationID]
	slow := make([]*hubSub, 0)
	for sub := range room {
		select {
		case sub.events <- ev:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	// Dropping a slow subscriber outside the read lock; Close re-locks.
	for _, sub := range slow {
		log.Warn().
			Str("conversation_id", ev.ConversationID).
			Msg("dropping slow realtime subscriber")
		_ = sub.Close()
	}
	return nil
}

func (h *Hub) detach(sub *hubSub) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[sub.conversationID]
	if room == nil {
		return
	}
	delete(room, sub)
	if len(room) == 0 {
		delete(h.rooms, sub.conversationID)
	}
}

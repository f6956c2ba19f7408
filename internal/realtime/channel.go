package realtime

import (
	"context"
	"time"
)

// Event is the push payload announcing a newly inserted message. Consumers
// hydrate the full record themselves; the event carries only what is needed
// to fetch and order it.
type Event struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	SentAt         time.Time `json:"sent_at"`
}

// Subscription is a live feed of insert events for one conversation.
// Close releases the feed; after Close the Events channel is closed.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Channel hands out per-conversation subscriptions.
type Channel interface {
	Subscribe(ctx context.Context, conversationID string) (Subscription, error)
}

// Publisher announces inserted messages to all subscribers of the
// conversation.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Broker is a full fan-out backend: both ends of the channel.
type Broker interface {
	Channel
	Publisher
}

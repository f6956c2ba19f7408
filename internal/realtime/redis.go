package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisBroker fans out insert events over redis pub/sub, one channel per
// conversation. Redis preserves publish order within a channel, but two
// writers may publish in an order that differs from their commit order;
// consumers therefore insert by sent_at instead of blind-appending.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) (*RedisBroker, error) {
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisBroker{client: client}, nil
}

func channelName(conversationID string) string {
	return "chat:conv:" + conversationID
}

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channelName(ev.ConversationID), body).Err()
}

type redisSub struct {
	pubsub *redis.PubSub
	events chan Event
	once   sync.Once
}

func (s *redisSub) Events() <-chan Event { return s.events }

func (s *redisSub) Close() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
	})
	return err
}

func (b *RedisBroker) Subscribe(ctx context.Context, conversationID string) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channelName(conversationID))
	// Force the SUBSCRIBE round-trip so a dead redis fails here, not later.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &redisSub{
		pubsub: pubsub,
		events: make(chan Event, subscriberBuffer),
	}
	go func() {
		defer close(sub.events)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).
					Str("channel", msg.Channel).
					Msg("dropping undecodable realtime event")
				continue
			}
			sub.events <- ev
		}
	}()
	return sub, nil
}

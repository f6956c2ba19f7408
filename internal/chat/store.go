package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pressdeck/editorial-chat/internal/realtime"
)

// MessageStore holds the ordered, de-duplicated message sequence for one
// conversation. It merges the historical load with live channel events and
// with the caller's own optimistic appends; the channel echo of a local
// send is discarded by id.
type MessageStore struct {
	repo           *Repo
	conversationID string
	hydrateTimeout time.Duration

	mu   sync.Mutex
	msgs []Message
	seen map[string]struct{}

	onIngest func(Message)

	sub  realtime.Subscription
	done chan struct{}
}

func NewMessageStore(repo *Repo, conversationID string, hydrateTimeout time.Duration) *MessageStore {
	if hydrateTimeout <= 0 {
		hydrateTimeout = 10 * time.Second
	}
	return &MessageStore{
		repo:           repo,
		conversationID: conversationID,
		hydrateTimeout: hydrateTimeout,
		seen:           make(map[string]struct{}),
	}
}

// SetOnIngest registers a callback fired once per newly ingested message.
// Must be set before Attach.
func (s *MessageStore) SetOnIngest(fn func(Message)) {
	s.onIngest = fn
}

// Load replaces the in-memory sequence with the full history, ASC by
// sent_at. A failure leaves the previous sequence untouched so the caller
// can surface a retryable error.
func (s *MessageStore) Load(ctx context.Context) error {
	msgs, err := s.repo.ListMessagesAsc(ctx, s.conversationID)
	if err != nil {
		return classifyStoreErr(err)
	}

	s.mu.Lock()
	s.msgs = msgs
	s.seen = make(map[string]struct{}, len(msgs))
	for i := range msgs {
		s.seen[msgs[i].ID] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

// Ingest inserts a message into the sequence at its sent_at position,
// discarding duplicates by id. Returns true if the message was new.
// Ordered insert, not append: the transport does not guarantee that
// delivery order matches commit order across publishers.
func (s *MessageStore) Ingest(m Message) bool {
	s.mu.Lock()
	if _, dup := s.seen[m.ID]; dup {
		s.mu.Unlock()
		return false
	}
	s.seen[m.ID] = struct{}{}

	i := len(s.msgs)
	for i > 0 && laterThan(s.msgs[i-1], m) {
		i--
	}
	s.msgs = append(s.msgs, Message{})
	copy(s.msgs[i+1:], s.msgs[i:])
	s.msgs[i] = m
	s.mu.Unlock()

	if s.onIngest != nil {
		s.onIngest(m)
	}
	return true
}

func laterThan(a, b Message) bool {
	if a.SentAt.Equal(b.SentAt) {
		return a.ID > b.ID
	}
	return a.SentAt.After(b.SentAt)
}

// Messages returns a copy of the current sequence.
func (s *MessageStore) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Len returns the current sequence length.
func (s *MessageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// Attach opens a live subscription for the store's conversation and starts
// consuming events. Each event is hydrated into a full record via a single
// fetch; a failed hydration is dropped with a warning rather than
// corrupting the sequence.
func (s *MessageStore) Attach(ctx context.Context, ch realtime.Channel) error {
	if s.sub != nil {
		return nil
	}
	sub, err := ch.Subscribe(ctx, s.conversationID)
	if err != nil {
		return err
	}
	s.sub = sub
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		for ev := range sub.Events() {
			s.handleEvent(ev)
		}
	}()
	return nil
}

// Detach releases the subscription so no background listener keeps
// delivering into a discarded store.
func (s *MessageStore) Detach() {
	if s.sub == nil {
		return
	}
	_ = s.sub.Close()
	<-s.done
	s.sub = nil
	s.done = nil
}

func (s *MessageStore) handleEvent(ev realtime.Event) {
	if ev.ConversationID != s.conversationID {
		return
	}
	// Skip the fetch entirely when the id is already present; this is the
	// common case for the echo of our own send.
	s.mu.Lock()
	_, dup := s.seen[ev.MessageID]
	s.mu.Unlock()
	if dup {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.hydrateTimeout)
	defer cancel()
	m, err := s.repo.GetMessageByID(ctx, ev.MessageID)
	if err != nil {
		log.Warn().Err(err).
			Str("message_id", ev.MessageID).
			Str("conversation_id", s.conversationID).
			Msg("dropping realtime event, hydration failed")
		return
	}
	s.Ingest(*m)
}

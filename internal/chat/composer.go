package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/pressdeck/editorial-chat/internal/common"
	"github.com/pressdeck/editorial-chat/internal/realtime"
)

// MaxBodyLen bounds message bodies in characters, enforced before any
// store write.
const MaxBodyLen = 500

// Composer validates and sends messages for one sender in one
// conversation. On failure the caller keeps its draft; Send never consumes
// input it could not deliver.
type Composer struct {
	repo           *Repo
	pub            realtime.Publisher
	userID         uint64
	conversationID string
	timeout        time.Duration
}

func NewComposer(repo *Repo, pub realtime.Publisher, userID uint64, conversationID string, timeout time.Duration) *Composer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Composer{
		repo:           repo,
		pub:            pub,
		userID:         userID,
		conversationID: conversationID,
		timeout:        timeout,
	}
}

// ValidateBody applies the composer's acceptance rules without touching
// the store.
func ValidateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > MaxBodyLen {
		return ErrBodyTooLong
	}
	return nil
}

// Send stores the message with a store-assigned timestamp and announces it
// on the realtime channel. The returned message carries the sender profile
// so the caller can render it optimistically.
func (c *Composer) Send(ctx context.Context, body string) (*Message, error) {
	if err := ValidateBody(body); err != nil {
		return nil, err
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	m := &Message{
		ID:             id,
		ConversationID: c.conversationID,
		SenderID:       c.userID,
		Body:           body,
		SentAt:         time.Now().UTC(),
	}
	if err := c.repo.InsertMessage(cctx, m); err != nil {
		return nil, classifyStoreErr(err)
	}

	stored, err := c.repo.GetMessageByID(cctx, id)
	if err != nil {
		// The write landed; fall back to the unjoined record.
		log.Warn().Err(err).Str("message_id", id).Msg("sender profile join failed after send")
		stored = m
	}

	ev := realtime.Event{
		MessageID:      stored.ID,
		ConversationID: stored.ConversationID,
		SentAt:         stored.SentAt,
	}
	if err := c.pub.Publish(cctx, ev); err != nil {
		// Other clients miss the push until their next full load. The write
		// itself succeeded, so the send is reported as accepted.
		log.Warn().Err(err).Str("message_id", stored.ID).Msg("realtime publish failed after send")
	}
	return stored, nil
}

package chat

import (
	"context"

	"github.com/pressdeck/editorial-chat/internal/identity"
	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateConversation(ctx context.Context, c *Conversation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// FindConversationByTitle returns the oldest conversation with the given
// title. Ordering makes the pick deterministic if a pre-constraint deployment
// left duplicates behind.
func (r *Repo) FindConversationByTitle(ctx context.Context, title string) (*Conversation, error) {
	var c Conversation
	if err := r.db.WithContext(ctx).
		Where("title = ?", title).
		Order("created_at ASC, id ASC").
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) GetConversationByID(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListMessagesAsc returns all messages of a conversation in ASC sent_at
// order (ties broken by id, which is time-sortable), each joined with its
// sender profile.
func (r *Repo) ListMessagesAsc(ctx context.Context, conversationID string) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("sent_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	if err := r.attachProfiles(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// GetMessageByID fetches a single message with its sender profile. Used to
// hydrate realtime events into full records.
func (r *Repo) GetMessageByID(ctx context.Context, id string) (*Message, error) {
	var m Message
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	one := []Message{m}
	if err := r.attachProfiles(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (r *Repo) attachProfiles(ctx context.Context, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	seen := make(map[uint64]struct{}, len(msgs))
	ids := make([]uint64, 0, len(msgs))
	for i := range msgs {
		if _, ok := seen[msgs[i].SenderID]; ok {
			continue
		}
		seen[msgs[i].SenderID] = struct{}{}
		ids = append(ids, msgs[i].SenderID)
	}

	var users []identity.User
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return err
	}
	byID := make(map[uint64]SenderProfile, len(users))
	for _, u := range users {
		byID[u.ID] = SenderProfile{
			Email:       u.Email,
			Role:        u.Role,
			DisplayName: u.DisplayName,
			AvatarURL:   u.AvatarURL,
		}
	}
	for i := range msgs {
		msgs[i].Sender = byID[msgs[i].SenderID]
	}
	return nil
}

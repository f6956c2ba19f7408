package chat

import "time"

type Conversation struct {
	ID        string    `gorm:"primaryKey;size:26" json:"id"`
	Title     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"title"`
	CreatedBy uint64    `gorm:"index;not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (Conversation) TableName() string { return "chat_conversations" }

// Message rows are append-only; nothing in the codebase updates or deletes them.
type Message struct {
	ID             string    `gorm:"primaryKey;size:26" json:"id"`
	ConversationID string    `gorm:"size:26;not null;index:idx_chat_msg_conv_sent,priority:1" json:"conversation_id"`
	SenderID       uint64    `gorm:"index;not null" json:"-"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	SentAt         time.Time `gorm:"not null;index:idx_chat_msg_conv_sent,priority:2" json:"sent_at"`

	Sender SenderProfile `gorm:"-" json:"sender"`
}

func (Message) TableName() string { return "chat_messages" }

// SenderProfile is the slice of a user record needed to render a message.
type SenderProfile struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

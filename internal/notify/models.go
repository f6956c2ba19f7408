package notify

import "time"

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Notification tracks delivery of one inserted message to offline
// recipients. One row per message; the worker fans out to recipients when
// it runs the row.
type Notification struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	MessageID      string `gorm:"size:26;uniqueIndex;not null"`
	ConversationID string `gorm:"size:26;index;not null"`
	SenderID       uint64 `gorm:"index;not null"`

	Status Status `gorm:"type:varchar(16);index;not null"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Notification) TableName() string { return "chat_notifications" }

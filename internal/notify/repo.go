package notify

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// CreateOrGetExisting creates a notification row, or returns the existing
// one when the message already has a row. The unique index on message_id
// makes re-publishing a message event idempotent.
func (r *Repo) CreateOrGetExisting(ctx context.Context, n *Notification) (*Notification, bool, error) {
	err := r.db.WithContext(ctx).Create(n).Error
	if err == nil {
		return n, true, nil
	}

	var existing Notification
	getErr := r.db.WithContext(ctx).
		Where("message_id = ?", n.MessageID).
		First(&existing).Error
	if getErr == nil {
		return &existing, false, nil
	}
	if errors.Is(getErr, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	return nil, false, getErr
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Notification, error) {
	var n Notification
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkRunning flips a queued notification to running; a second worker
// holding the same delivery sees zero rows affected.
func (r *Repo) MarkRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND status = ?", id, StatusQueued).
		Update("status", StatusRunning).Error
}

func (r *Repo) MarkSucceeded(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": StatusSucceeded,
			"error":  nil,
		}).Error
}

func (r *Repo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": StatusFailed,
			"error":  errMsg,
		}).Error
}

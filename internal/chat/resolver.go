package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pressdeck/editorial-chat/internal/common"
)

// Resolver guarantees a single shared conversation per title: find the
// existing row, create it on first use, and treat a unique-title conflict
// from a concurrent creator as "already exists, re-resolve".
type Resolver struct {
	repo *Repo
}

func NewResolver(repo *Repo) *Resolver {
	return &Resolver{repo: repo}
}

func (r *Resolver) Resolve(ctx context.Context, title string, userID uint64) (*Conversation, error) {
	conv, err := r.repo.FindConversationByTitle(ctx, title)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, classifyStoreErr(err)
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	created := &Conversation{
		ID:        id,
		Title:     title,
		CreatedBy: userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.repo.CreateConversation(ctx, created); err != nil {
		if isDuplicateKey(err) {
			// Another client won the create race; the unique index on title
			// turned it into a conflict we can recover from.
			log.Warn().Str("title", title).Msg("conversation create conflict, re-resolving")
			conv, ferr := r.repo.FindConversationByTitle(ctx, title)
			if ferr != nil {
				return nil, classifyStoreErr(ferr)
			}
			return conv, nil
		}
		return nil, classifyStoreErr(err)
	}
	return created, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}

// classifyStoreErr maps a raw store error onto the resolver's failure
// taxonomy. Permission faults are surfaced distinctly from transient ones.
func classifyStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "access denied") ||
		strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "command denied") {
		return errors.Join(ErrStoreDenied, err)
	}
	return errors.Join(ErrStoreUnavailable, err)
}

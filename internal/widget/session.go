package widget

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pressdeck/editorial-chat/internal/chat"
	"github.com/pressdeck/editorial-chat/internal/realtime"
)

// Session wires one user's widget to the chat subsystem: controller,
// conversation resolution, message store, composer and the realtime
// subscription. The session owns the subscription lifecycle — attach when
// the panel first opens, detach on Unmount — instead of binding global
// listeners.
type Session struct {
	id       Identity
	title    string
	timeout  time.Duration
	repo     *chat.Repo
	resolver *chat.Resolver
	broker   realtime.Broker
	ctrl     *Controller

	conv     *chat.Conversation
	store    *chat.MessageStore
	composer *chat.Composer

	draft string

	resolveErr error
	loadErr    error
}

type SessionConfig struct {
	Identity   Identity
	Title      string
	OpTimeout  time.Duration
	Repo       *chat.Repo
	Broker     realtime.Broker
	Controller *Controller
}

func NewSession(cfg SessionConfig) *Session {
	return &Session{
		id:       cfg.Identity,
		title:    cfg.Title,
		timeout:  cfg.OpTimeout,
		repo:     cfg.Repo,
		resolver: chat.NewResolver(cfg.Repo),
		broker:   cfg.Broker,
		ctrl:     cfg.Controller,
	}
}

func (s *Session) Controller() *Controller { return s.ctrl }

// Visible reports whether the widget renders at all for this identity.
func (s *Session) Visible() bool { return Allowed(s.id) }

// ResolveErr is the blocking error from a failed conversation resolution;
// the widget stays closed until the user dismisses it and tries again.
func (s *Session) ResolveErr() error { return s.resolveErr }

// LoadErr is the retryable error from a failed historical load; the panel
// stays open but empty.
func (s *Session) LoadErr() error { return s.loadErr }

// HandlePointer feeds a pointer or touch event into the controller and
// performs the open-transition work (resolve, load, subscribe) when the
// gesture opened the panel.
func (s *Session) HandlePointer(ctx context.Context, ev PointerEvent) {
	if !s.Visible() {
		return
	}
	toggled := s.ctrl.HandlePointer(ev)
	if !toggled {
		return
	}
	if s.ctrl.State() == StateOpen {
		s.onOpen(ctx)
	}
}

func (s *Session) onOpen(ctx context.Context) {
	if s.conv == nil {
		if err := s.initConversation(ctx); err != nil {
			// Resolution failure: surface and fall back to closed.
			s.resolveErr = err
			s.ctrl.toggle()
			log.Error().Err(err).Str("title", s.title).Msg("conversation resolution failed")
			return
		}
	}
	if s.store != nil && s.loadErr != nil {
		s.RetryLoad(ctx)
	}
}

func (s *Session) initConversation(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conv, err := s.resolver.Resolve(rctx, s.title, s.id.UserID)
	if err != nil {
		return err
	}
	s.conv = conv
	s.resolveErr = nil

	store := chat.NewMessageStore(s.repo, conv.ID, s.timeout)
	store.SetOnIngest(func(chat.Message) { s.ctrl.NoteIngest() })
	s.store = store
	s.composer = chat.NewComposer(s.repo, s.broker, s.id.UserID, conv.ID, s.timeout)

	if err := store.Load(rctx); err != nil {
		s.loadErr = err
	} else {
		s.loadErr = nil
	}
	if err := store.Attach(ctx, s.broker); err != nil {
		// Without a live feed the panel still works off the loaded history.
		log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("realtime subscribe failed")
	}
	return nil
}

// RetryLoad re-runs a failed historical load.
func (s *Session) RetryLoad(ctx context.Context) {
	if s.store == nil {
		return
	}
	lctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.Load(lctx); err != nil {
		s.loadErr = err
		return
	}
	s.loadErr = nil
}

// Draft returns the preserved composer input.
func (s *Session) Draft() string { return s.draft }

// SetDraft tracks the composer input as the user types.
func (s *Session) SetDraft(text string) { s.draft = text }

// Send submits the current draft. On success the stored message is
// optimistically ingested and the draft cleared; on failure the draft is
// preserved for a manual retry.
func (s *Session) Send(ctx context.Context) error {
	if s.composer == nil {
		return chat.ErrStoreUnavailable
	}
	m, err := s.composer.Send(ctx, s.draft)
	if err != nil {
		return err
	}
	s.store.Ingest(*m)
	s.draft = ""
	return nil
}

// Messages returns the rendered sequence.
func (s *Session) Messages() []chat.Message {
	if s.store == nil {
		return nil
	}
	return s.store.Messages()
}

// Unmount tears the session down, releasing the realtime subscription.
func (s *Session) Unmount() {
	if s.store != nil {
		s.store.Detach()
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pressdeck/editorial-chat/internal/chat"
	"github.com/pressdeck/editorial-chat/internal/common"
	"github.com/pressdeck/editorial-chat/internal/notify"
)

func failStore(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		common.Fail(c, http.StatusNotFound, 40404, "not found")
	case errors.Is(err, chat.ErrStoreDenied):
		// configuration problem, not a transient fault
		common.Fail(c, http.StatusForbidden, 40302, "record store access denied")
	default:
		common.Fail(c, http.StatusInternalServerError, 50002, "record store unavailable")
	}
}

type resolveConversationReq struct {
	Title string `json:"title"`
}

// ResolveConversation finds or creates the shared conversation for the
// given title (default: the configured editorial chat title).
func (h *Handler) ResolveConversation(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req resolveConversationReq
	_ = c.ShouldBindJSON(&req) // allow empty {}
	title := req.Title
	if title == "" {
		title = h.Cfg.ConversationTitle
	}

	conv, err := h.Resolver.Resolve(c.Request.Context(), title, uid)
	if err != nil {
		failStore(c, err)
		return
	}
	common.Ok(c, gin.H{"conversation": conv})
}

func (h *Handler) ListConversationMessages(c *gin.Context) {
	if _, okk := userIDFromContext(c); !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	conversationID := c.Param("conversation_id")

	if _, err := h.ChatRepo.GetConversationByID(c.Request.Context(), conversationID); err != nil {
		failStore(c, err)
		return
	}
	msgs, err := h.ChatRepo.ListMessagesAsc(c.Request.Context(), conversationID)
	if err != nil {
		failStore(c, err)
		return
	}
	common.Ok(c, gin.H{"messages": msgs})
}

type sendMessageReq struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Body           string `json:"body" binding:"required"`
}

func (h *Handler) SendChatMessage(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := chat.ValidateBody(req.Body); err != nil {
		if errors.Is(err, chat.ErrBodyTooLong) {
			common.Fail(c, http.StatusBadRequest, 10011, "message body exceeds 500 characters")
			return
		}
		common.Fail(c, http.StatusBadRequest, 10010, "message body is empty")
		return
	}
	if _, err := h.ChatRepo.GetConversationByID(c.Request.Context(), req.ConversationID); err != nil {
		failStore(c, err)
		return
	}

	composer := chat.NewComposer(h.ChatRepo, h.Broker, uid, req.ConversationID, h.Cfg.OpTimeout)
	msg, err := composer.Send(c.Request.Context(), req.Body)
	if err != nil {
		failStore(c, err)
		return
	}

	h.enqueueNotification(c, msg)

	common.Ok(c, gin.H{"message": msg})
}

// enqueueNotification creates the delivery row and queues it for the
// worker. Best-effort: the message itself is already committed.
func (h *Handler) enqueueNotification(c *gin.Context, msg *chat.Message) {
	if h.Rabbit == nil {
		return
	}
	id, err := common.NewULID()
	if err != nil {
		log.Warn().Err(err).Msg("notification id generation failed")
		return
	}
	n := &notify.Notification{
		ID:             id,
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Status:         notify.StatusQueued,
	}
	stored, created, err := h.Notify.CreateOrGetExisting(c.Request.Context(), n)
	if err != nil {
		log.Warn().Err(err).Str("message_id", msg.ID).Msg("notification row create failed")
		return
	}
	if !created {
		return
	}
	if err := h.Rabbit.PublishNotification(c.Request.Context(), stored.ID); err != nil {
		log.Warn().Err(err).Str("notification_id", stored.ID).Msg("notification enqueue failed")
	}
}

// StreamConversationEvents exposes the realtime channel over SSE so the
// embedded widget can subscribe without a raw redis connection.
func (h *Handler) StreamConversationEvents(c *gin.Context) {
	if _, okk := userIDFromContext(c); !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	conversationID := c.Param("conversation_id")
	if _, err := h.ChatRepo.GetConversationByID(c.Request.Context(), conversationID); err != nil {
		failStore(c, err)
		return
	}

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		fmt.Fprintf(c.Writer, "event: error\ndata: flusher not supported\n\n")
		return
	}

	ctx := c.Request.Context()
	sub, err := h.Broker.Subscribe(ctx, conversationID)
	if err != nil {
		fmt.Fprintf(c.Writer, "event: error\ndata: subscribe failed\n\n")
		flusher.Flush()
		return
	}
	defer sub.Close()

	// heartbeat ticker (keeps connections alive)
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	writeJSON := func(event string, payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"message\":\"json marshal failed\"}\n\n")
			flusher.Flush()
			return
		}
		if event != "" {
			fmt.Fprintf(c.Writer, "event: %s\n", event)
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", string(b))
		flusher.Flush()
	}

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			writeJSON("message", ev)

		case <-ticker.C:
			writeJSON("ping", gin.H{"type": "ping", "ts": time.Now().Unix()})

		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) GetUnread(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	conversationID := c.Param("conversation_id")
	n, err := h.Redis.GetUnread(c.Request.Context(), uid, conversationID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "unread lookup failed")
		return
	}
	common.Ok(c, gin.H{"unread": n})
}

// ResetUnread clears the server-side unread counter; clients call it on
// the closed-to-open transition.
func (h *Handler) ResetUnread(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	conversationID := c.Param("conversation_id")
	if err := h.Redis.ResetUnread(c.Request.Context(), uid, conversationID); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "unread reset failed")
		return
	}
	common.Ok(c, gin.H{"unread": 0})
}

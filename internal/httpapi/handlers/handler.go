package handlers

import (
	"gorm.io/gorm"

	"github.com/pressdeck/editorial-chat/internal/chat"
	"github.com/pressdeck/editorial-chat/internal/config"
	"github.com/pressdeck/editorial-chat/internal/identity"
	"github.com/pressdeck/editorial-chat/internal/notify"
	"github.com/pressdeck/editorial-chat/internal/realtime"
	"github.com/pressdeck/editorial-chat/internal/store/rabbitmq"
	"github.com/pressdeck/editorial-chat/internal/store/redisstore"
)

type Handler struct {
	Cfg      config.Config
	Users    *identity.Repo
	ChatRepo *chat.Repo
	Resolver *chat.Resolver
	Notify   *notify.Repo
	Broker   realtime.Broker
	Redis    *redisstore.Store
	Rabbit   *rabbitmq.Publisher // nil disables queueing
}

func NewHandler(db *gorm.DB, cfg config.Config, broker realtime.Broker, rds *redisstore.Store, rabbit *rabbitmq.Publisher) *Handler {
	chatRepo := chat.NewRepo(db)
	return &Handler{
		Cfg:      cfg,
		Users:    identity.NewRepo(db),
		ChatRepo: chatRepo,
		Resolver: chat.NewResolver(chatRepo),
		Notify:   notify.NewRepo(db),
		Broker:   broker,
		Redis:    rds,
		Rabbit:   rabbit,
	}
}

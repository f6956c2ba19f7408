package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pressdeck/editorial-chat/internal/common"
	"github.com/pressdeck/editorial-chat/internal/config"
	"github.com/pressdeck/editorial-chat/internal/httpapi/handlers"
	"github.com/pressdeck/editorial-chat/internal/httpapi/middleware"
	"github.com/pressdeck/editorial-chat/internal/identity"
	"github.com/pressdeck/editorial-chat/internal/realtime"
	"github.com/pressdeck/editorial-chat/internal/store/rabbitmq"
	"github.com/pressdeck/editorial-chat/internal/store/redisstore"
)

func NewRouter(db *gorm.DB, cfg config.Config, broker realtime.Broker, rds *redisstore.Store, rabbit *rabbitmq.Publisher) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	// the widget is embedded in the admin tool, served from another origin
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-Request-ID")
	r.Use(cors.New(corsCfg))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, broker, rds, rabbit)

	r.GET("/ping", h.Ping)
	r.POST("/login", h.Login)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)

	adminGroup := authGroup.Group("/")
	adminGroup.Use(middleware.RequireRoles(identity.RoleAdmin))
	adminGroup.POST("/users", h.CreateUser)

	// Chat: elevated roles only; lower roles never see the widget.
	chatGroup := authGroup.Group("/chat")
	chatGroup.Use(middleware.RequireRoles(identity.RoleAdmin, identity.RoleEditor))
	chatGroup.POST("/conversations/resolve", h.ResolveConversation)
	chatGroup.GET("/conversations/:conversation_id/messages", h.ListConversationMessages)
	chatGroup.GET("/conversations/:conversation_id/events", h.StreamConversationEvents)
	chatGroup.GET("/conversations/:conversation_id/unread", h.GetUnread)
	chatGroup.POST("/conversations/:conversation_id/unread/reset", h.ResetUnread)
	chatGroup.POST("/messages", h.SendChatMessage)

	return r
}

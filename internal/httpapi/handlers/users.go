package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pressdeck/editorial-chat/internal/common"
	"github.com/pressdeck/editorial-chat/internal/httpapi/middleware"
	"github.com/pressdeck/editorial-chat/internal/identity"
	"gorm.io/gorm"
)

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

func (h *Handler) Ping(c *gin.Context) {
	common.Ok(c, gin.H{"pong": true})
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	u, err := h.Users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusUnauthorized, 40103, "invalid credentials")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if !identity.CheckPassword(u.PasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40103, "invalid credentials")
		return
	}

	token, err := identity.MintToken(h.Cfg.JWTSecret, u.ID, u.Role)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.Ok(c, gin.H{"token": token, "role": u.Role})
}

func (h *Handler) Me(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	u, err := h.Users.GetByID(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.Ok(c, gin.H{
		"id":           u.ID,
		"email":        u.Email,
		"role":         u.Role,
		"display_name": u.DisplayName,
		"avatar_url":   u.AvatarURL,
	})
}

type createUserReq struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role" binding:"required"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// CreateUser provisions an account. Admin-only; there is no self-service
// registration in the admin tool.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	switch req.Role {
	case identity.RoleAdmin, identity.RoleEditor, identity.RoleAuthor:
	default:
		common.Fail(c, http.StatusBadRequest, 10002, "unknown role")
		return
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	u := &identity.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		DisplayName:  req.DisplayName,
		AvatarURL:    req.AvatarURL,
	}
	if err := h.Users.Create(c.Request.Context(), u); err != nil {
		common.Fail(c, http.StatusConflict, 40901, "email already registered")
		return
	}
	common.Ok(c, gin.H{"id": u.ID})
}

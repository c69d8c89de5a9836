package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"famledger/internal/auth"
	apperrors "famledger/internal/errors"
	"famledger/internal/logger"
	"famledger/internal/pagination"
	"famledger/internal/services"
)

// AdminHandler serves the operator endpoints used to provision family
// members and refresh the authorization cache.
type AdminHandler struct {
	users      services.UserServicer
	authorizer auth.Authorizer
	audit      services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(users services.UserServicer, authorizer auth.Authorizer, audit services.AuditServicer) *AdminHandler {
	return &AdminHandler{users: users, authorizer: authorizer, audit: audit}
}

// CreateUserRequest represents the user provisioning payload
type CreateUserRequest struct {
	ChatID   int64  `json:"chat_id" binding:"required"`
	Name     string `json:"name" binding:"required,max=100"`
	FamilyID string `json:"family_id" binding:"required,family_id"`
}

// sizer is implemented by authorizers that hold a snapshot of users.
type sizer interface {
	Len() int
}

// Register mounts the admin routes on r. Everything except the health check
// requires the admin API key.
func (h *AdminHandler) Register(r gin.IRouter, mw ...gin.HandlerFunc) {
	r.GET("/api/health", h.Health)

	admin := r.Group("/api/v1/admin")
	admin.Use(mw...)
	admin.POST("/auth/refresh", h.RefreshAuth)
	admin.GET("/users", h.ListUsers)
	admin.POST("/users", h.CreateUser)
}

// Health reports liveness and, for cached authorization, the snapshot size.
func (h *AdminHandler) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if s, ok := h.authorizer.(sizer); ok {
		body["authorized_users"] = s.Len()
	}
	c.JSON(http.StatusOK, body)
}

// RefreshAuth reloads the authorized user set from the store.
func (h *AdminHandler) RefreshAuth(c *gin.Context) {
	if err := h.authorizer.ForceRefresh(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	h.audit.Log(c.Request.Context(), 0, "", services.AuditActionRefresh, "", map[string]interface{}{"client_ip": c.ClientIP()})

	body := gin.H{"status": "refreshed"}
	if s, ok := h.authorizer.(sizer); ok {
		body["authorized_users"] = s.Len()
	}
	c.JSON(http.StatusOK, body)
}

// ListUsers returns a page of authorized users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		_ = c.Error(apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	users, err := h.users.ListUsers(c.Request.Context(), page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser provisions a family member and makes them authorized
// immediately.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.CreateUser(ctx, req.ChatID, req.Name, req.FamilyID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.audit.Log(ctx, user.ChatID, user.ID, services.AuditActionUserCreated, user.ID, map[string]interface{}{
		"family_id": user.FamilyID,
	})

	if err := h.authorizer.ForceRefresh(ctx); err != nil {
		logger.Get().Warnw("user created but authorization refresh failed",
			"chat_id", user.ChatID,
			"error", err,
		)
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

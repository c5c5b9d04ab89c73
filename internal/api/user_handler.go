package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/core"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
)

// UserHandler handles the signed-in user's profile.
type UserHandler struct {
	users  core.UserService
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users core.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// GetCurrentUser handles GET /users/me. The profile is created on first call.
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	user, created, err := h.users.GetOrCreate(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, UserResponse{User: user, Created: created})
}

// UpdateCurrentUser handles PUT /users/me
func (h *UserHandler) UpdateCurrentUser(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CompleteOnboarding handles POST /users/me/onboarding
func (h *UserHandler) CompleteOnboarding(c *gin.Context) {
	user, err := h.users.CompleteOnboarding(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

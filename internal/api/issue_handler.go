package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/core"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
)

// IssueHandler files support tickets.
type IssueHandler struct {
	issues core.IssueService
	logger *zap.Logger
}

// NewIssueHandler creates a new IssueHandler.
func NewIssueHandler(issues core.IssueService, logger *zap.Logger) *IssueHandler {
	return &IssueHandler{issues: issues, logger: logger}
}

// SubmitIssue handles POST /issues
func (h *IssueHandler) SubmitIssue(c *gin.Context) {
	var req models.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	issue, err := h.issues.Submit(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

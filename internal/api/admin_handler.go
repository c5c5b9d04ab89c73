package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/core"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
)

// AdminHandler serves the admin dashboard.
type AdminHandler struct {
	stats   core.StatsService
	orders  core.OrderService
	sellers core.SellerService
	logger  *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(stats core.StatsService, orders core.OrderService, sellers core.SellerService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{stats: stats, orders: orders, sellers: sellers, logger: logger}
}

// GetStatistics handles GET /admin/stats
func (h *AdminHandler) GetStatistics(c *gin.Context) {
	stats, err := h.stats.ComputeStatistics(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), middleware.GetSession(c), c.Param("id"), req.Status)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteProduct handles DELETE /admin/products/:category/:id
func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	err := h.sellers.DeleteProduct(c.Request.Context(), middleware.GetSession(c), c.Param("category"), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/core"
	"github.com/example/storefront/internal/models"
)

// ProductReader is the read side of the catalog.
type ProductReader interface {
	FetchAllProducts(ctx context.Context) ([]models.Product, error)
	FetchCategory(ctx context.Context, category string) ([]models.Product, error)
	FetchProduct(ctx context.Context, category, id string) (*models.Product, error)
}

// CatalogHandler serves the public product listing and client configuration.
type CatalogHandler struct {
	products ProductReader
	payments core.PaymentService
	logger   *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(products ProductReader, payments core.PaymentService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{products: products, payments: payments, logger: logger}
}

// ListProducts handles GET /products, optionally narrowed with ?category=
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		c.AddParam("category", category)
		h.ListCategory(c)
		return
	}
	products, err := h.products.FetchAllProducts(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ProductListResponse{Products: products, Count: len(products)})
}

// ListCategory handles GET /products/:category
func (h *CatalogHandler) ListCategory(c *gin.Context) {
	products, err := h.products.FetchCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ProductListResponse{Products: products, Count: len(products)})
}

// GetProduct handles GET /products/:category/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.products.FetchProduct(c.Request.Context(), c.Param("category"), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetConfig handles GET /config. It exposes the client-visible payment and analytics keys
// and the category list.
func (h *CatalogHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"payment":    h.payments.PublicConfig(),
		"categories": models.Categories,
	})
}

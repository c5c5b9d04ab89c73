package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/core"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
)

const maxImageSize = 5 << 20

// SellerHandler handles seller product submissions.
type SellerHandler struct {
	sellers core.SellerService
	logger  *zap.Logger
}

// NewSellerHandler creates a new SellerHandler.
func NewSellerHandler(sellers core.SellerService, logger *zap.Logger) *SellerHandler {
	return &SellerHandler{sellers: sellers, logger: logger}
}

// SubmitProduct handles POST /seller/products. The body is either JSON or a multipart form
// with an optional "image" file.
func (h *SellerHandler) SubmitProduct(c *gin.Context) {
	var req models.SubmitProductRequest
	var image io.Reader

	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		if err := c.ShouldBind(&req); err != nil {
			bindingError(c, err)
			return
		}
		header, err := c.FormFile("image")
		if err == nil {
			if header.Size > maxImageSize {
				c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Image must be at most 5 MB"})
				return
			}
			file, err := header.Open()
			if err != nil {
				bindingError(c, err)
				return
			}
			defer file.Close()
			image = file
		} else if err != http.ErrMissingFile {
			bindingError(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	product, err := h.sellers.SubmitProduct(c.Request.Context(), middleware.GetSession(c), req, image)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

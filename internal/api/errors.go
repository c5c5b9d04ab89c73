package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/core"
	"github.com/example/storefront/internal/validation"
	"github.com/example/storefront/pkg/media"
)

// mapErrorToStatus renders a service error. It is the single place user-facing error
// messages are produced.
func mapErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	statusCode, resp := errorResponse(err)
	if statusCode >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(statusCode, resp)
}

func errorResponse(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorResponse{Error: err.Error()}
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: core.ErrForbidden.Error()}

	case errors.Is(err, core.ErrPaymentNotConfirmed):
		return http.StatusPaymentRequired, ErrorResponse{Error: core.ErrPaymentNotConfirmed.Error(), Details: err.Error()}

	case errors.Is(err, core.ErrOrderCreationFailed):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "Order could not be placed, please try again", Retryable: true}
	case isTransient(err):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "Service temporarily unavailable, please try again", Retryable: true}

	case errors.Is(err, core.ErrEmptyCart),
		errors.Is(err, core.ErrInvalidOrder),
		errors.Is(err, core.ErrInvalidPaymentMethod),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrSellerProfileRequired),
		errors.Is(err, cart.ErrQuantityBelowMinimum),
		errors.Is(err, catalog.ErrUnknownCategory):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}

	case errors.Is(err, core.ErrOrderNotFound),
		errors.Is(err, core.ErrUserNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error()}

	case errors.Is(err, core.ErrInvalidStatusTransition),
		errors.Is(err, core.ErrPaymentAlreadyUsed),
		errors.Is(err, core.ErrOutOfStock):
		return http.StatusConflict, ErrorResponse{Error: err.Error()}

	case errors.Is(err, media.ErrNotConfigured):
		return http.StatusNotImplemented, ErrorResponse{Error: media.ErrNotConfigured.Error()}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."}
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
			return true
		}
	}
	return false
}

// bindingError answers a request whose body failed to bind or validate.
func bindingError(c *gin.Context, err error) {
	resp := ErrorResponse{Error: "Invalid request payload"}
	if fields := validation.FieldErrors(err); fields != nil {
		resp.Fields = fields
	} else {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/core"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/validation"
)

// Services are the dependencies of the HTTP handlers.
type Services struct {
	Catalog  ProductReader
	Carts    core.CartService
	Orders   core.OrderService
	Payments core.PaymentService
	Users    core.UserService
	Sellers  core.SellerService
	Issues   core.IssueService
	Stats    core.StatsService
}

// SetupRoutes registers all API routes on router.
func SetupRoutes(router *gin.Engine, authMW *middleware.AuthMiddleware, svc Services, logger *zap.Logger) error {
	if err := validation.Register(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	catalogHandler := NewCatalogHandler(svc.Catalog, svc.Payments, logger)
	userHandler := NewUserHandler(svc.Users, logger)
	cartHandler := NewCartHandler(svc.Carts, logger)
	orderHandler := NewOrderHandler(svc.Orders, logger)
	sellerHandler := NewSellerHandler(svc.Sellers, logger)
	issueHandler := NewIssueHandler(svc.Issues, logger)
	adminHandler := NewAdminHandler(svc.Stats, svc.Orders, svc.Sellers, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := router.Group("/api/v1")
	{
		// Public catalog
		apiV1.GET("/config", catalogHandler.GetConfig)
		products := apiV1.Group("/products")
		{
			products.GET("", catalogHandler.ListProducts)
			products.GET("/:category", catalogHandler.ListCategory)
			products.GET("/:category/:id", catalogHandler.GetProduct)
		}

		apiV1.POST("/issues", authMW.OptionalToken(), issueHandler.SubmitIssue)

		users := apiV1.Group("/users", authMW.VerifyToken())
		{
			users.GET("/me", userHandler.GetCurrentUser)
			users.PUT("/me", userHandler.UpdateCurrentUser)
			users.POST("/me/onboarding", userHandler.CompleteOnboarding)
		}

		carts := apiV1.Group("/cart", authMW.VerifyToken())
		{
			carts.GET("", cartHandler.GetCart)
			carts.DELETE("", cartHandler.ClearCart)
			carts.POST("/items", cartHandler.AddItem)
			carts.PUT("/items/:productId", cartHandler.UpdateItem)
			carts.DELETE("/items/:productId", cartHandler.RemoveItem)
		}

		checkout := apiV1.Group("/checkout", authMW.VerifyToken())
		{
			checkout.POST("", orderHandler.Checkout)
			checkout.POST("/options", orderHandler.CheckoutOptions)
		}

		orders := apiV1.Group("/orders", authMW.VerifyToken())
		{
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.POST("/:id/cancel", orderHandler.CancelOrder)
		}

		apiV1.POST("/seller/products", authMW.VerifyToken(), sellerHandler.SubmitProduct)

		// Admin dashboard
		admin := apiV1.Group("/admin", authMW.VerifyToken(), middleware.RequireAdmin())
		{
			admin.GET("/stats", adminHandler.GetStatistics)
			admin.PUT("/orders/:id/status", adminHandler.UpdateOrderStatus)
			admin.DELETE("/products/:category/:id", adminHandler.DeleteProduct)
		}
	}

	return nil
}

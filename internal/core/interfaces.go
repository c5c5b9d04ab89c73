package core

import (
	"context"
	"io"

	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/pkg/messagequeue"
)

// OrderService places and manages orders.
type OrderService interface {
	// PlaceOrder writes the order, the user's order counter and the stock decrements in one
	// transaction.
	PlaceOrder(ctx context.Context, session *models.Session, items []models.CartItem, address models.Address, paymentMethod, paymentToken string) (*models.Order, error)
	// Quote prices the session cart and returns the gateway bootstrap for it.
	Quote(ctx context.Context, session *models.Session) (*models.CheckoutQuote, error)
	// Checkout verifies the payment confirmation and places an order for the session cart.
	Checkout(ctx context.Context, session *models.Session, req models.CheckoutRequest) (*models.Order, error)
	ListOrders(ctx context.Context, session *models.Session) ([]models.Order, error)
	GetOrder(ctx context.Context, session *models.Session, orderID string) (*models.Order, error)
	CancelOrder(ctx context.Context, session *models.Session, orderID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, session *models.Session, orderID string, status models.OrderStatus) (*models.Order, error)
}

// CartService edits the session cart.
type CartService interface {
	Get(ctx context.Context, session *models.Session) (cart.Summary, error)
	AddItem(ctx context.Context, session *models.Session, req models.AddItemRequest) (cart.Summary, error)
	UpdateQuantity(ctx context.Context, session *models.Session, productID string, quantity int) (cart.Summary, error)
	RemoveItem(ctx context.Context, session *models.Session, productID string) (cart.Summary, error)
	Clear(ctx context.Context, session *models.Session) error
}

// StatsService computes the admin dashboard statistics.
type StatsService interface {
	ComputeStatistics(ctx context.Context) (*models.Statistics, error)
}

// PaymentService talks to the payment gateway.
type PaymentService interface {
	Options(session *models.Session, amount decimal.Decimal) (models.GatewayOptions, error)
	// VerifyConfirmation returns the payment token to record on the order, or
	// ErrPaymentNotConfirmed.
	VerifyConfirmation(method string, confirmation *models.PaymentConfirmation) (string, error)
	PublicConfig() map[string]string
}

// UserService manages user profiles.
type UserService interface {
	GetOrCreate(ctx context.Context, session *models.Session) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, session *models.Session, req models.UpdateProfileRequest) (*models.User, error)
	CompleteOnboarding(ctx context.Context, session *models.Session) (*models.User, error)
}

// SellerService manages seller product listings.
type SellerService interface {
	SubmitProduct(ctx context.Context, session *models.Session, req models.SubmitProductRequest, image io.Reader) (*models.Product, error)
	DeleteProduct(ctx context.Context, session *models.Session, category, id string) error
}

// IssueService files support tickets.
type IssueService interface {
	Submit(ctx context.Context, session *models.Session, req models.CreateIssueRequest) (*models.Issue, error)
}

// Catalog is the product source the services read and write through.
type Catalog interface {
	FetchAllProducts(ctx context.Context) ([]models.Product, error)
	FetchProduct(ctx context.Context, category, id string) (*models.Product, error)
	AddProduct(ctx context.Context, p models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, category, id string) (*models.Product, error)
	Invalidate(ctx context.Context)
}

// CartStore persists session carts.
type CartStore interface {
	Load(ctx context.Context, userID string) *cart.Cart
	Update(ctx context.Context, userID string, fn func(c *cart.Cart) error) (*cart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// OrderEventPublisher announces committed orders.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, e messagequeue.OrderPlacedEvent) error
}

package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/models"
)

type cartService struct {
	carts   CartStore
	catalog Catalog
	logger  *zap.Logger
}

// NewCartService creates the session cart service.
func NewCartService(carts CartStore, catalog Catalog, logger *zap.Logger) CartService {
	return &cartService{carts: carts, catalog: catalog, logger: logger}
}

func (s *cartService) Get(ctx context.Context, session *models.Session) (cart.Summary, error) {
	if !session.SignedIn() {
		return cart.Summary{}, ErrUnauthenticated
	}
	return s.carts.Load(ctx, session.UserID).Summary(), nil
}

// AddItem snapshots the current product into the cart.
func (s *cartService) AddItem(ctx context.Context, session *models.Session, req models.AddItemRequest) (cart.Summary, error) {
	if !session.SignedIn() {
		return cart.Summary{}, ErrUnauthenticated
	}
	p, err := s.catalog.FetchProduct(ctx, req.Category, req.ProductID)
	if err != nil {
		return cart.Summary{}, err
	}
	if !p.InStock {
		return cart.Summary{}, fmt.Errorf("%w: %s", ErrOutOfStock, p.Name)
	}
	c, err := s.carts.Update(ctx, session.UserID, func(c *cart.Cart) error {
		c.AddItem(*p, req.Quantity)
		return nil
	})
	if err != nil {
		return cart.Summary{}, err
	}
	s.logger.Debug("Cart item added", zap.String("user", session.UserID), zap.String("product_id", p.ID))
	return c.Summary(), nil
}

// UpdateQuantity sets a line quantity. Quantities below one are rejected and leave the cart
// unchanged.
func (s *cartService) UpdateQuantity(ctx context.Context, session *models.Session, productID string, quantity int) (cart.Summary, error) {
	if !session.SignedIn() {
		return cart.Summary{}, ErrUnauthenticated
	}
	c, err := s.carts.Update(ctx, session.UserID, func(c *cart.Cart) error {
		return c.UpdateQuantity(productID, quantity)
	})
	if err != nil {
		return cart.Summary{}, err
	}
	return c.Summary(), nil
}

func (s *cartService) RemoveItem(ctx context.Context, session *models.Session, productID string) (cart.Summary, error) {
	if !session.SignedIn() {
		return cart.Summary{}, ErrUnauthenticated
	}
	c, err := s.carts.Update(ctx, session.UserID, func(c *cart.Cart) error {
		c.RemoveItem(productID)
		return nil
	})
	if err != nil {
		return cart.Summary{}, err
	}
	return c.Summary(), nil
}

func (s *cartService) Clear(ctx context.Context, session *models.Session) error {
	if !session.SignedIn() {
		return ErrUnauthenticated
	}
	return s.carts.Clear(ctx, session.UserID)
}

package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/db"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/pkg/cache"
	"github.com/example/storefront/pkg/messagequeue"
)

const quoteKeyPrefix = "checkout:quote:"

// OrderDeps are the collaborators of the order service. Events may be nil. Quotes holds the
// gateway reference issued by Quote until checkout; it defaults to process memory.
type OrderDeps struct {
	Store           db.Store
	Carts           CartStore
	Catalog         Catalog
	Payments        PaymentService
	Events          OrderEventPublisher
	Quotes          cache.Cache
	Pricing         models.Pricing
	CheckoutTimeout time.Duration
	QuoteTTL        time.Duration
	Logger          *zap.Logger
}

type orderService struct {
	OrderDeps
	now func() time.Time
}

// NewOrderService creates the order service.
func NewOrderService(deps OrderDeps) OrderService {
	if deps.CheckoutTimeout <= 0 {
		deps.CheckoutTimeout = 30 * time.Second
	}
	if deps.QuoteTTL <= 0 {
		deps.QuoteTTL = 30 * time.Minute
	}
	if deps.Quotes == nil {
		deps.Quotes = cache.NewMemory()
	}
	return &orderService{OrderDeps: deps, now: time.Now}
}

// NewOrderID returns "ORD-<unix millis>-<8 random hex chars>".
func NewOrderID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}

// stockTarget is one product whose stock an order decrements.
type stockTarget struct {
	category string
	id       string
	quantity int64
}

// stockTargets sums quantities per product, keeping first-seen order. Lines without a
// known category are returned separately.
func stockTargets(items []models.CartItem) (targets []stockTarget, unrouted []models.CartItem) {
	index := map[string]int{}
	for _, it := range items {
		if !models.IsCategory(it.Category) {
			unrouted = append(unrouted, it)
			continue
		}
		key := it.Category + "/" + it.ProductID
		if i, ok := index[key]; ok {
			targets[i].quantity += int64(it.Quantity)
			continue
		}
		index[key] = len(targets)
		targets = append(targets, stockTarget{category: it.Category, id: it.ProductID, quantity: int64(it.Quantity)})
	}
	return targets, unrouted
}

// stockFields computes the single write that moves a product's stock by delta and reports
// the change actually applied. Counts never go below zero. The in-stock flag is cleared when
// the count reaches zero and set again when stock is returned.
func stockFields(raw map[string]any, delta int64) (map[string]any, int64) {
	field := catalog.StockField(raw)
	current := catalog.StockCount(raw)
	next := max(current+delta, 0)
	applied := next - current

	fields := map[string]any{}
	if stored, ok := wholeNumber(raw[field]); ok && stored == current && applied == delta {
		fields[field] = db.Increment(delta)
	} else {
		// Text, fractional or negative counts are rewritten as a plain number.
		fields[field] = next
	}
	switch {
	case next == 0:
		fields[catalog.StockFlagField(raw)] = false
	case delta > 0:
		fields[catalog.StockFlagField(raw)] = true
	}
	return fields, applied
}

// wholeNumber returns v when it is stored as an integral number.
func wholeNumber(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n), true
		}
	}
	return 0, false
}

// minorUnits converts an amount to the gateway's smallest currency unit.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// PlaceOrder validates the request, builds the order and commits it together with the user's
// order counter and the stock decrements. Products that no longer exist, and lines without a
// known category, are skipped with a warning and never block the order. A payment token is
// recorded with the order and cannot pay for a second one.
func (s *orderService) PlaceOrder(ctx context.Context, session *models.Session, items []models.CartItem, address models.Address, paymentMethod, paymentToken string) (*models.Order, error) {
	if !session.SignedIn() {
		return nil, ErrUnauthenticated
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, it := range items {
		if it.Quantity < 1 || it.ProductID == "" {
			return nil, fmt.Errorf("%w: line %q has quantity %d", ErrInvalidOrder, it.ProductID, it.Quantity)
		}
	}
	if !models.IsPaymentMethod(paymentMethod) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, paymentMethod)
	}

	status := models.StatusPending
	paymentToken = strings.TrimSpace(paymentToken)
	if !models.IsCashOnDelivery(paymentMethod) {
		if paymentToken == "" {
			return nil, fmt.Errorf("%w: no payment token", ErrPaymentNotConfirmed)
		}
		status = models.StatusPaid
	}

	order := models.BuildOrder(models.NewOrder{
		ID:            NewOrderID(s.now()),
		UserID:        session.UserID,
		Items:         items,
		Address:       address,
		PaymentMethod: paymentMethod,
		PaymentID:     paymentToken,
		Status:        status,
		PlacedAt:      s.now().UTC(),
	}, s.Pricing)

	targets, unrouted := stockTargets(items)
	for _, it := range unrouted {
		s.Logger.Warn("Order line has no known category, stock not decremented",
			zap.String("order_id", order.ID), zap.String("product_id", it.ProductID), zap.String("category", it.Category))
	}

	var missing []stockTarget
	err := s.Store.RunTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
		missing = missing[:0]

		// All reads happen before the first write.
		if status == models.StatusPaid {
			_, err := tx.Get(db.PaymentsCollection, paymentToken)
			if err == nil {
				return fmt.Errorf("%w: %s", ErrPaymentAlreadyUsed, paymentToken)
			}
			if !errors.Is(err, db.ErrNotFound) {
				return err
			}
		}
		_, err := tx.Get(db.UsersCollection, session.UserID)
		newUser := errors.Is(err, db.ErrNotFound)
		if err != nil && !newUser {
			return err
		}
		found := make([]*db.Document, len(targets))
		for i, t := range targets {
			doc, err := tx.Get(t.category, t.id)
			if errors.Is(err, db.ErrNotFound) {
				missing = append(missing, t)
				continue
			}
			if err != nil {
				return err
			}
			found[i] = doc
		}

		// Record what each product actually gave up.
		updates := make([]map[string]any, len(targets))
		order.StockTaken = make([]models.StockMove, 0, len(targets))
		for i, t := range targets {
			if found[i] == nil {
				continue
			}
			fields, applied := stockFields(found[i].Data, -t.quantity)
			updates[i] = fields
			order.StockTaken = append(order.StockTaken, models.StockMove{Category: t.category, ProductID: t.id, Quantity: -applied})
		}

		if err := tx.Create(db.OrdersCollection, order.ID, order.ToDocument()); err != nil {
			return err
		}
		if status == models.StatusPaid {
			if err := tx.Create(db.PaymentsCollection, paymentToken, map[string]any{
				"orderId":       order.ID,
				"userId":        session.UserID,
				"amount":        order.Amount,
				"paymentMethod": paymentMethod,
				"createdAt":     order.OrderDate,
			}); err != nil {
				return err
			}
		}
		user := map[string]any{
			"email":      session.Email,
			"orderCount": db.Increment(1),
		}
		if newUser {
			user["displayName"] = session.DisplayName
			user["photoURL"] = session.PhotoURL
			user["createdAt"] = order.OrderDate
			user["updatedAt"] = order.OrderDate
		}
		if err := tx.Merge(db.UsersCollection, session.UserID, user); err != nil {
			return err
		}
		for i, t := range targets {
			if updates[i] == nil {
				continue
			}
			if err := tx.Update(t.category, t.id, updates[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrPaymentAlreadyUsed) {
		s.Logger.Warn("Payment already recorded against another order", zap.String("payment_id", paymentToken), zap.String("user", session.UserID))
		return nil, err
	}
	if err != nil {
		s.Logger.Error("Order transaction failed", zap.String("order_id", order.ID), zap.String("user", session.UserID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
	}

	for _, t := range missing {
		s.Logger.Warn("Product no longer exists, stock not decremented",
			zap.String("order_id", order.ID), zap.String("category", t.category), zap.String("product_id", t.id))
	}
	s.Logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("user", session.UserID),
		zap.String("status", string(order.Status)),
		zap.Float64("amount", order.Amount),
		zap.Int("lines", len(order.Items)),
		zap.Int("stock_writes", len(targets)-len(missing)))
	return &order, nil
}

// Quote prices the session cart.
func (s *orderService) Quote(ctx context.Context, session *models.Session) (*models.CheckoutQuote, error) {
	if !session.SignedIn() {
		return nil, ErrUnauthenticated
	}
	c := s.Carts.Load(ctx, session.UserID)
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	subtotal := c.Total()
	tax, shipping, amount := s.Pricing.Charges(subtotal)
	gateway, err := s.Payments.Options(session, amount)
	if err != nil {
		return nil, err
	}
	pending := pendingPayment{Reference: gateway.Reference, Amount: gateway.Amount}
	if err := cache.SetJSON(ctx, s.Quotes, quoteKeyPrefix+session.UserID, pending, s.QuoteTTL); err != nil {
		s.Logger.Warn("Failed to remember checkout quote", zap.String("user", session.UserID), zap.Error(err))
	}
	return &models.CheckoutQuote{
		Subtotal:   subtotal.InexactFloat64(),
		Tax:        tax.InexactFloat64(),
		Shipping:   shipping.InexactFloat64(),
		Amount:     amount.InexactFloat64(),
		TotalItems: c.TotalItems(),
		Gateway:    gateway,
	}, nil
}

// Checkout places an order for the session cart. Once the payment confirmation is verified
// the order write is detached from the caller's cancellation and bounded by the checkout
// timeout instead.
func (s *orderService) Checkout(ctx context.Context, session *models.Session, req models.CheckoutRequest) (*models.Order, error) {
	if !session.SignedIn() {
		return nil, ErrUnauthenticated
	}
	c := s.Carts.Load(ctx, session.UserID)
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	token, err := s.Payments.VerifyConfirmation(req.PaymentMethod, req.Payment)
	if err != nil {
		return nil, err
	}
	if token != "" {
		if err := s.matchQuote(ctx, session, req.Payment, c.Total()); err != nil {
			return nil, err
		}
	}

	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.CheckoutTimeout)
	defer cancel()

	order, err := s.PlaceOrder(txCtx, session, c.Items(), req.Address, req.PaymentMethod, token)
	if err != nil {
		return nil, err
	}

	if err := s.Carts.Clear(txCtx, session.UserID); err != nil {
		s.Logger.Warn("Failed to clear cart after checkout", zap.String("user", session.UserID), zap.Error(err))
	}
	if token != "" {
		if err := s.Quotes.Delete(txCtx, quoteKeyPrefix+session.UserID); err != nil {
			s.Logger.Warn("Failed to drop checkout quote", zap.String("user", session.UserID), zap.Error(err))
		}
	}
	s.Catalog.Invalidate(txCtx)
	s.publishPlaced(txCtx, order)
	return order, nil
}

// pendingPayment is the gateway reference and amount handed out by Quote.
type pendingPayment struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

// matchQuote checks that a confirmation answers the latest quote for the session and that
// the cart still costs what was quoted.
func (s *orderService) matchQuote(ctx context.Context, session *models.Session, confirmation *models.PaymentConfirmation, subtotal decimal.Decimal) error {
	var pending pendingPayment
	if err := cache.GetJSON(ctx, s.Quotes, quoteKeyPrefix+session.UserID, &pending); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return fmt.Errorf("%w: no open checkout quote", ErrPaymentNotConfirmed)
		}
		return fmt.Errorf("%w: %w", ErrPaymentNotConfirmed, err)
	}
	if confirmation.Reference != pending.Reference {
		return fmt.Errorf("%w: reference %q does not match the quote", ErrPaymentNotConfirmed, confirmation.Reference)
	}
	_, _, amount := s.Pricing.Charges(subtotal)
	if minorUnits(amount) != pending.Amount {
		return fmt.Errorf("%w: cart total changed since the quote", ErrPaymentNotConfirmed)
	}
	return nil
}

func (s *orderService) publishPlaced(ctx context.Context, order *models.Order) {
	if s.Events == nil {
		return
	}
	lines := make([]messagequeue.OrderEventItem, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, messagequeue.OrderEventItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	err := s.Events.PublishOrderPlaced(ctx, messagequeue.OrderPlacedEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		Amount:        order.Amount,
		Status:        string(order.Status),
		PaymentMethod: order.PaymentMethod,
		Items:         lines,
		PlacedAt:      order.OrderDate,
	})
	if err != nil {
		s.Logger.Error("Failed to publish order event", zap.String("order_id", order.ID), zap.Error(err))
	}
}

// ListOrders returns the session user's orders, newest first.
func (s *orderService) ListOrders(ctx context.Context, session *models.Session) ([]models.Order, error) {
	if !session.SignedIn() {
		return nil, ErrUnauthenticated
	}
	docs, err := s.Store.Query(ctx, db.OrdersCollection, "userId", session.UserID)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", session.UserID, err)
	}
	orders := make([]models.Order, 0, len(docs))
	for _, d := range docs {
		orders = append(orders, models.OrderFromDocument(d.ID, d.Data))
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
	return orders, nil
}

// GetOrder returns an order of the session user. Admins may read any order.
func (s *orderService) GetOrder(ctx context.Context, session *models.Session, orderID string) (*models.Order, error) {
	if !session.SignedIn() {
		return nil, ErrUnauthenticated
	}
	doc, err := s.Store.Get(ctx, db.OrdersCollection, orderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	order := models.OrderFromDocument(doc.ID, doc.Data)
	if order.UserID != session.UserID && !session.IsAdmin {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return &order, nil
}

// CancelOrder cancels a pending order of the session user and puts its stock back.
func (s *orderService) CancelOrder(ctx context.Context, session *models.Session, orderID string) (*models.Order, error) {
	if !session.SignedIn() {
		return nil, ErrUnauthenticated
	}
	return s.transition(ctx, session, orderID, models.StatusCancelled)
}

// UpdateStatus moves an order forward, or cancels it while pending. Admin only.
func (s *orderService) UpdateStatus(ctx context.Context, session *models.Session, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !session.SignedIn() {
		return nil, ErrUnauthenticated
	}
	if !session.IsAdmin {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.transition(ctx, session, orderID, status)
}

func (s *orderService) transition(ctx context.Context, session *models.Session, orderID string, to models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := s.Store.RunTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
		doc, err := tx.Get(db.OrdersCollection, orderID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
			}
			return err
		}
		order = models.OrderFromDocument(doc.ID, doc.Data)
		if order.UserID != session.UserID && !session.IsAdmin {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		if !models.CanTransition(order.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, order.Status, to)
		}

		var restock []stockTarget
		var restockDocs []*db.Document
		if to == models.StatusCancelled {
			for _, t := range returnedStock(order) {
				doc, err := tx.Get(t.category, t.id)
				if errors.Is(err, db.ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				restock = append(restock, t)
				restockDocs = append(restockDocs, doc)
			}
		}

		if err := tx.Update(db.OrdersCollection, orderID, map[string]any{
			"status":    string(to),
			"updatedAt": s.now().UTC(),
		}); err != nil {
			return err
		}
		for i, t := range restock {
			fields, _ := stockFields(restockDocs[i].Data, t.quantity)
			if err := tx.Update(t.category, t.id, fields); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Status = to
	s.Logger.Info("Order status changed", zap.String("order_id", orderID), zap.String("status", string(to)), zap.String("by", session.UserID))
	if to == models.StatusCancelled {
		s.Catalog.Invalidate(ctx)
	}
	return &order, nil
}

// returnedStock is what cancelling order puts back: the recorded stock moves, or the ordered
// quantities for orders placed without a record.
func returnedStock(order models.Order) []stockTarget {
	if order.StockTaken == nil {
		targets, _ := stockTargets(orderLines(order.Items))
		return targets
	}
	targets := make([]stockTarget, 0, len(order.StockTaken))
	for _, m := range order.StockTaken {
		if m.Quantity > 0 && models.IsCategory(m.Category) && m.ProductID != "" {
			targets = append(targets, stockTarget{category: m.Category, id: m.ProductID, quantity: m.Quantity})
		}
	}
	return targets
}

func orderLines(items []models.OrderItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.CartItem{ProductID: it.ProductID, Category: it.Category, Quantity: it.Quantity})
	}
	return out
}

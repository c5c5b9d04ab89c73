// Package notify turns order events into customer email.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/pkg/mailer"
	"github.com/example/storefront/pkg/messagequeue"
)

// Sender delivers order confirmations. *mailer.Mailer implements it.
type Sender interface {
	SendOrderConfirmation(recipient string, c mailer.OrderConfirmation) error
}

// UserLookup resolves user profiles.
type UserLookup interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// Notifier mails an order confirmation for every placed order.
type Notifier struct {
	users    UserLookup
	sender   Sender
	currency string
	logger   *zap.Logger
}

// New creates a Notifier.
func New(users UserLookup, sender Sender, currency string, logger *zap.Logger) *Notifier {
	return &Notifier{users: users, sender: sender, currency: currency, logger: logger}
}

// HandleOrderPlaced sends the confirmation for e. Events without a reachable address are
// dropped; a failed send is returned so the message is rejected.
func (n *Notifier) HandleOrderPlaced(ctx context.Context, e messagequeue.OrderPlacedEvent) error {
	recipient := n.recipient(ctx, e.UserID)
	if recipient == "" {
		n.logger.Warn("No email address for order, skipping confirmation",
			zap.String("order_id", e.OrderID), zap.String("user_id", e.UserID))
		return nil
	}

	lines := make([]mailer.OrderLine, 0, len(e.Items))
	for _, it := range e.Items {
		lines = append(lines, mailer.OrderLine{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	err := n.sender.SendOrderConfirmation(recipient, mailer.OrderConfirmation{
		OrderID:       e.OrderID,
		Amount:        e.Amount,
		Currency:      n.currency,
		PaymentMethod: e.PaymentMethod,
		Status:        e.Status,
		PlacedAt:      e.PlacedAt,
		Lines:         lines,
	})
	if err != nil {
		return fmt.Errorf("send confirmation for %s: %w", e.OrderID, err)
	}
	n.logger.Info("Order confirmation sent", zap.String("order_id", e.OrderID), zap.String("recipient", recipient))
	return nil
}

// recipient prefers the profile email and falls back to the user id, which is the
// normalized email for every signed-in user.
func (n *Notifier) recipient(ctx context.Context, userID string) string {
	user, err := n.users.GetByID(ctx, userID)
	if err == nil && user.Email != "" {
		return user.Email
	}
	if err != nil {
		n.logger.Debug("User lookup failed", zap.String("user_id", userID), zap.Error(err))
	}
	if strings.Contains(userID, "@") {
		return userID
	}
	return ""
}

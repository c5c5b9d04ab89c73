package core

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/models"
)

// PaymentConfig holds the gateway credentials.
type PaymentConfig struct {
	PublicKey string
	// SecretKey enables signature verification of confirmations when set.
	SecretKey           string
	Currency            string
	AnalyticsTrackingID string
}

type paymentService struct {
	cfg    PaymentConfig
	logger *zap.Logger
}

// NewPaymentService builds a PaymentService. The public key is mandatory.
func NewPaymentService(cfg PaymentConfig, logger *zap.Logger) (PaymentService, error) {
	if cfg.PublicKey == "" {
		return nil, errors.New("payment gateway public key is not configured")
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.SecretKey == "" {
		logger.Warn("PAYMENT_SECRET_KEY not set; payment confirmations are accepted without signature verification")
	}
	return &paymentService{cfg: cfg, logger: logger}, nil
}

// Options returns the hosted checkout bootstrap for amount, in minor currency units.
func (s *paymentService) Options(session *models.Session, amount decimal.Decimal) (models.GatewayOptions, error) {
	if !session.SignedIn() {
		return models.GatewayOptions{}, ErrUnauthenticated
	}
	if !amount.IsPositive() {
		return models.GatewayOptions{}, fmt.Errorf("%w: amount must be positive", ErrInvalidOrder)
	}
	return models.GatewayOptions{
		Key:         s.cfg.PublicKey,
		Amount:      minorUnits(amount),
		Currency:    s.cfg.Currency,
		Reference:   "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		PrefillName: session.DisplayName,
		PrefillMail: session.Email,
	}, nil
}

// VerifyConfirmation checks a gateway confirmation for method. Cash on delivery needs none.
// Online methods need a payment id and, when a secret key is configured, a valid
// HMAC-SHA256 signature over "reference|paymentId".
func (s *paymentService) VerifyConfirmation(method string, confirmation *models.PaymentConfirmation) (string, error) {
	if !models.IsPaymentMethod(method) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}
	if models.IsCashOnDelivery(method) {
		return "", nil
	}
	if confirmation == nil || strings.TrimSpace(confirmation.PaymentID) == "" {
		return "", fmt.Errorf("%w: no payment token", ErrPaymentNotConfirmed)
	}
	if s.cfg.SecretKey != "" {
		if confirmation.Reference == "" || confirmation.Signature == "" {
			return "", fmt.Errorf("%w: signature missing", ErrPaymentNotConfirmed)
		}
		expected := Sign(s.cfg.SecretKey, confirmation.Reference, confirmation.PaymentID)
		if !hmac.Equal([]byte(expected), []byte(strings.ToLower(confirmation.Signature))) {
			s.logger.Warn("Payment signature mismatch", zap.String("payment_id", confirmation.PaymentID))
			return "", fmt.Errorf("%w: signature mismatch", ErrPaymentNotConfirmed)
		}
	}
	return confirmation.PaymentID, nil
}

// PublicConfig is the client-visible configuration.
func (s *paymentService) PublicConfig() map[string]string {
	return map[string]string{
		"paymentKey":          s.cfg.PublicKey,
		"currency":            s.cfg.Currency,
		"analyticsTrackingId": s.cfg.AnalyticsTrackingID,
	}
}

// Sign computes the hex HMAC-SHA256 the gateway sends for a confirmation.
func Sign(secret, reference, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(reference + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/models"
)

func TestNewPaymentService_RequiresPublicKey(t *testing.T) {
	_, err := NewPaymentService(PaymentConfig{}, zap.NewNop())

	assert.Error(t, err)
}

func TestPaymentService_Options(t *testing.T) {
	svc, err := NewPaymentService(PaymentConfig{PublicKey: "pk_live", Currency: "USD"}, zap.NewNop())
	require.NoError(t, err)

	opts, err := svc.Options(customer(), decimal.RequireFromString("123.456"))

	require.NoError(t, err)
	assert.Equal(t, int64(12346), opts.Amount)
	assert.Equal(t, "USD", opts.Currency)
	assert.Equal(t, "Buyer@Example.com", opts.PrefillMail)
	assert.Regexp(t, `^rcpt_[0-9a-f]{16}$`, opts.Reference)

	_, err = svc.Options(nil, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.Options(customer(), decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestPaymentService_VerifyConfirmation(t *testing.T) {
	signed, err := NewPaymentService(PaymentConfig{PublicKey: "pk", SecretKey: "s3cret"}, zap.NewNop())
	require.NoError(t, err)
	unsigned, err := NewPaymentService(PaymentConfig{PublicKey: "pk"}, zap.NewNop())
	require.NoError(t, err)
	good := &models.PaymentConfirmation{
		PaymentID: "pay_1",
		Reference: "rcpt_1",
		Signature: Sign("s3cret", "rcpt_1", "pay_1"),
	}

	tests := []struct {
		name    string
		svc     PaymentService
		method  string
		conf    *models.PaymentConfirmation
		want    string
		wantErr error
	}{
		{"cod needs nothing", signed, models.PaymentCOD, nil, "", nil},
		{"unknown method", signed, "cheque", good, "", ErrInvalidPaymentMethod},
		{"online without confirmation", signed, models.PaymentOnline, nil, "", ErrPaymentNotConfirmed},
		{"blank payment id", unsigned, models.PaymentCard, &models.PaymentConfirmation{PaymentID: " "}, "", ErrPaymentNotConfirmed},
		{"unsigned accepted without secret", unsigned, models.PaymentCard, &models.PaymentConfirmation{PaymentID: "pay_2"}, "pay_2", nil},
		{"signature required with secret", signed, models.PaymentUPI, &models.PaymentConfirmation{PaymentID: "pay_1"}, "", ErrPaymentNotConfirmed},
		{"bad signature", signed, models.PaymentUPI, &models.PaymentConfirmation{PaymentID: "pay_1", Reference: "rcpt_1", Signature: "00"}, "", ErrPaymentNotConfirmed},
		{"good signature", signed, models.PaymentUPI, good, "pay_1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.svc.VerifyConfirmation(tt.method, tt.conf)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, token)
		})
	}
}

func TestPaymentService_PublicConfig(t *testing.T) {
	svc, err := NewPaymentService(PaymentConfig{PublicKey: "pk", SecretKey: "hidden", AnalyticsTrackingID: "G-1"}, zap.NewNop())
	require.NoError(t, err)

	cfg := svc.PublicConfig()

	assert.Equal(t, "pk", cfg["paymentKey"])
	assert.Equal(t, "G-1", cfg["analyticsTrackingId"])
	assert.NotContains(t, cfg, "secretKey")
	for _, v := range cfg {
		assert.NotEqual(t, "hidden", v)
	}
}

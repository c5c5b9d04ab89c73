package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PAYMENT_PUBLIC_KEY", "pk_test")
	t.Setenv("ANALYTICS_TRACKING_ID", "G-TEST")
	t.Setenv("CART_ENCRYPTION_KEY", "MDEyMzQ1Njc4OTAxMjM0NTY3ODkwMTIzNDU2Nzg5MDE=")
	t.Setenv("STORE_BACKEND", BackendMemory)
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "order.placed", cfg.OrderEventsQueue)
	assert.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.CheckoutTimeout)
	assert.Equal(t, 30*time.Minute, cfg.QuoteTTL)
	assert.Equal(t, 168*time.Hour, cfg.CartTTL)
	pricing, err := cfg.Pricing()
	require.NoError(t, err)
	assert.Equal(t, "0.18", pricing.TaxRate.String())
	assert.True(t, pricing.ShippingFee.IsZero())
}

func TestLoadConfig_MissingPaymentKeyFailsFast(t *testing.T) {
	setRequired(t)
	t.Setenv("PAYMENT_PUBLIC_KEY", "")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_PUBLIC_KEY")
}

func TestLoadConfig_FirestoreNeedsCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_BACKEND", BackendFirestore)
	t.Setenv("FIREBASE_PROJECT_ID", "shop")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64", "")

	_, err := LoadConfig()

	assert.ErrorContains(t, err, "GOOGLE_APPLICATION_CREDENTIALS")
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"STORE_BACKEND": "postgres",
		"TAX_RATE":      "-0.1",
		"SHIPPING_FEE":  "free",
		"QUOTE_TTL":     "0s",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, value)

			_, err := LoadConfig()

			assert.ErrorContains(t, err, key)
		})
	}
}

func TestLoadConfig_FileUnderEnvironment(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
  admin_emails: "Boss@Example.com, ops@example.com"
redis:
  address: "redis:6379"
pricing:
  tax_rate: "0.05"
cache:
  catalog_ttl: "10m"
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TAX_RATE", "0.12")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 10*time.Minute, cfg.CatalogCacheTTL)
	assert.Equal(t, "0.12", cfg.TaxRate, "environment wins over the file")
	assert.Equal(t, []string{"boss@example.com", "ops@example.com"}, cfg.Admins())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := LoadConfig()

	assert.ErrorContains(t, err, "absent.yaml")
}

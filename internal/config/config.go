// Package config loads the service configuration from the environment and an optional
// YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/example/storefront/internal/db"
	"github.com/example/storefront/internal/models"
)

// Store backends.
const (
	BackendFirestore = db.BackendFirestore
	BackendMongo     = db.BackendMongo
	BackendMemory    = db.BackendMemory
)

// Config holds all configuration for the application.
type Config struct {
	Port        string `mapstructure:"PORT"`
	GinMode     string `mapstructure:"GIN_MODE"`
	ClientURL   string `mapstructure:"CLIENT_URL"`
	AdminEmails string `mapstructure:"ADMIN_EMAILS"` // comma separated

	StoreBackend                     string `mapstructure:"STORE_BACKEND"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	MongoURI                         string `mapstructure:"MONGO_URI"`
	MongoDB                          string `mapstructure:"MONGO_DB"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	AMQPURL          string `mapstructure:"AMQP_URL"`
	OrderEventsQueue string `mapstructure:"ORDER_EVENTS_QUEUE"`

	PaymentPublicKey    string `mapstructure:"PAYMENT_PUBLIC_KEY"`
	PaymentSecretKey    string `mapstructure:"PAYMENT_SECRET_KEY"`
	AnalyticsTrackingID string `mapstructure:"ANALYTICS_TRACKING_ID"`
	Currency            string `mapstructure:"CURRENCY"`
	TaxRate             string `mapstructure:"TAX_RATE"`
	ShippingFee         string `mapstructure:"SHIPPING_FEE"`
	FreeShippingOver    string `mapstructure:"FREE_SHIPPING_OVER"`

	CartEncryptionKey string        `mapstructure:"CART_ENCRYPTION_KEY"` // base64, 32 bytes
	CartTTL           time.Duration `mapstructure:"CART_TTL"`
	CatalogCacheTTL   time.Duration `mapstructure:"CATALOG_CACHE_TTL"`
	StatsCacheTTL     time.Duration `mapstructure:"STATS_CACHE_TTL"`
	CheckoutTimeout   time.Duration `mapstructure:"CHECKOUT_TIMEOUT"`
	QuoteTTL          time.Duration `mapstructure:"QUOTE_TTL"` // how long a gateway reference stays payable

	CloudinaryURL string `mapstructure:"CLOUDINARY_URL"`

	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort int    `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	MailFrom string `mapstructure:"MAIL_FROM"`
}

// defaults apply when neither the environment nor the config file sets a key.
var defaults = map[string]any{
	"PORT":               "8080",
	"GIN_MODE":           "debug",
	"STORE_BACKEND":      BackendFirestore,
	"MONGO_DB":           "storefront",
	"REDIS_DB":           0,
	"ORDER_EVENTS_QUEUE": "order.placed",
	"CURRENCY":           "INR",
	"TAX_RATE":           "0.18",
	"SHIPPING_FEE":       "0",
	"FREE_SHIPPING_OVER": "0",
	"CART_TTL":           "168h",
	"CATALOG_CACHE_TTL":  "5m",
	"STATS_CACHE_TTL":    "1m",
	"CHECKOUT_TIMEOUT":   "30s",
	"QUOTE_TTL":          "30m",
	"SMTP_PORT":          587,
}

// keys lists every variable bound from the environment.
var keys = []string{
	"PORT", "GIN_MODE", "CLIENT_URL", "ADMIN_EMAILS",
	"STORE_BACKEND", "FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64", "MONGO_URI", "MONGO_DB",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"AMQP_URL", "ORDER_EVENTS_QUEUE",
	"PAYMENT_PUBLIC_KEY", "PAYMENT_SECRET_KEY", "ANALYTICS_TRACKING_ID", "CURRENCY",
	"TAX_RATE", "SHIPPING_FEE", "FREE_SHIPPING_OVER",
	"CART_ENCRYPTION_KEY", "CART_TTL", "CATALOG_CACHE_TTL", "STATS_CACHE_TTL", "CHECKOUT_TIMEOUT", "QUOTE_TTL",
	"CLOUDINARY_URL",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "MAIL_FROM",
}

// LoadConfig reads the configuration. Environment variables win over values from the YAML
// file named by CONFIG_FILE, which win over built-in defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Bind environment variables
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	if err := v.BindEnv("CONFIG_FILE"); err != nil {
		return nil, fmt.Errorf("bind CONFIG_FILE: %w", err)
	}

	// File values replace the built-in defaults but never an environment variable.
	if path := v.GetString("CONFIG_FILE"); path != "" {
		fileValues, err := readFile(path)
		if err != nil {
			return nil, err
		}
		for key, value := range fileValues {
			v.SetDefault(key, value)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	// The storefront client bootstraps checkout and analytics from these.
	if c.PaymentPublicKey == "" {
		return errors.New("PAYMENT_PUBLIC_KEY is required: checkout cannot start without the payment gateway key")
	}
	if c.AnalyticsTrackingID == "" {
		return errors.New("ANALYTICS_TRACKING_ID is required")
	}
	if c.CartEncryptionKey == "" {
		return errors.New("CART_ENCRYPTION_KEY is required")
	}
	// Each backend has its own connection settings.
	switch c.StoreBackend {
	case BackendFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required")
		}
		if c.GoogleApplicationCredentials == "" && c.FirebaseServiceAccountJSONBase64 == "" {
			return errors.New("either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo store backend")
		}
	case BackendMemory:
		// Nothing to connect.
	default:
		return fmt.Errorf("STORE_BACKEND must be one of firestore, mongo, memory; got %q", c.StoreBackend)
	}
	// Pricing strings must parse as non-negative decimals.
	if _, err := c.Pricing(); err != nil {
		return err
	}
	if c.CheckoutTimeout <= 0 {
		return errors.New("CHECKOUT_TIMEOUT must be positive")
	}
	if c.QuoteTTL <= 0 {
		return errors.New("QUOTE_TTL must be positive")
	}
	return nil
}

// StoreOptions describes the configured document store. withAuth also requests the Firebase
// Auth client.
func (c *Config) StoreOptions(withAuth bool) db.OpenOptions {
	return db.OpenOptions{
		Backend: c.StoreBackend,
		Firebase: db.FirebaseConfig{
			ProjectID:             c.FirebaseProjectID,
			CredentialsFile:       c.GoogleApplicationCredentials,
			CredentialsJSONBase64: c.FirebaseServiceAccountJSONBase64,
		},
		Mongo:    db.MongoConfig{URI: c.MongoURI, DBName: c.MongoDB},
		WithAuth: withAuth,
	}
}

// Pricing parses the tax and shipping settings.
func (c *Config) Pricing() (models.Pricing, error) {
	var p models.Pricing
	var err error
	if p.TaxRate, err = nonNegative("TAX_RATE", c.TaxRate); err != nil {
		return p, err
	}
	if p.ShippingFee, err = nonNegative("SHIPPING_FEE", c.ShippingFee); err != nil {
		return p, err
	}
	if p.FreeShippingOver, err = nonNegative("FREE_SHIPPING_OVER", c.FreeShippingOver); err != nil {
		return p, err
	}
	return p, nil
}

func nonNegative(name, raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", name, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", name)
	}
	return d, nil
}

// Admins returns the lowercased admin email addresses.
func (c *Config) Admins() []string {
	var out []string
	for _, e := range strings.Split(c.AdminEmails, ",") {
		if e = models.UserKey(e); e != "" { // Skip blanks left by stray commas
			out = append(out, e)
		}
	}
	return out
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

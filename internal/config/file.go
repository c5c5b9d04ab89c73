package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the layout of the optional YAML configuration file. Every value maps onto
// one environment key.
type fileConfig struct {
	Server struct {
		Port      string `yaml:"port"`
		GinMode   string `yaml:"gin_mode"`
		ClientURL string `yaml:"client_url"`
		Admins    string `yaml:"admin_emails"`
	} `yaml:"server"`
	Store struct {
		Backend string `yaml:"backend"`
	} `yaml:"store"`
	Firestore struct {
		ProjectID       string `yaml:"project_id"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firestore"`
	Mongo struct {
		URI string `yaml:"uri"`
		DB  string `yaml:"db"`
	} `yaml:"mongo"`
	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URL       string `yaml:"url"`
		QueueName string `yaml:"queue_name"`
	} `yaml:"rabbitmq"`
	Payment struct {
		PublicKey           string `yaml:"public_key"`
		Currency            string `yaml:"currency"`
		AnalyticsTrackingID string `yaml:"analytics_tracking_id"`
	} `yaml:"payment"`
	Pricing struct {
		TaxRate          string `yaml:"tax_rate"`
		ShippingFee      string `yaml:"shipping_fee"`
		FreeShippingOver string `yaml:"free_shipping_over"`
	} `yaml:"pricing"`
	Cache struct {
		Cart    string `yaml:"cart_ttl"`
		Catalog string `yaml:"catalog_ttl"`
		Stats   string `yaml:"stats_ttl"`
	} `yaml:"cache"`
	SMTP struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		User string `yaml:"user"`
		From string `yaml:"from"`
	} `yaml:"smtp"`
}

// readFile parses the YAML file at path into environment-keyed values. Empty entries are
// omitted so they never shadow defaults. Secrets are not read from the file.
func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	out := map[string]any{}
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set("PORT", fc.Server.Port)
	set("GIN_MODE", fc.Server.GinMode)
	set("CLIENT_URL", fc.Server.ClientURL)
	set("ADMIN_EMAILS", fc.Server.Admins)
	set("STORE_BACKEND", fc.Store.Backend)
	set("FIREBASE_PROJECT_ID", fc.Firestore.ProjectID)
	set("GOOGLE_APPLICATION_CREDENTIALS", fc.Firestore.CredentialsFile)
	set("MONGO_URI", fc.Mongo.URI)
	set("MONGO_DB", fc.Mongo.DB)
	set("REDIS_ADDR", fc.Redis.Address)
	set("REDIS_PASSWORD", fc.Redis.Password)
	if fc.Redis.DB != 0 {
		out["REDIS_DB"] = fc.Redis.DB
	}
	set("AMQP_URL", fc.RabbitMQ.URL)
	set("ORDER_EVENTS_QUEUE", fc.RabbitMQ.QueueName)
	set("PAYMENT_PUBLIC_KEY", fc.Payment.PublicKey)
	set("CURRENCY", fc.Payment.Currency)
	set("ANALYTICS_TRACKING_ID", fc.Payment.AnalyticsTrackingID)
	set("TAX_RATE", fc.Pricing.TaxRate)
	set("SHIPPING_FEE", fc.Pricing.ShippingFee)
	set("FREE_SHIPPING_OVER", fc.Pricing.FreeShippingOver)
	set("CART_TTL", fc.Cache.Cart)
	set("CATALOG_CACHE_TTL", fc.Cache.Catalog)
	set("STATS_CACHE_TTL", fc.Cache.Stats)
	set("SMTP_HOST", fc.SMTP.Host)
	if fc.SMTP.Port != 0 {
		out["SMTP_PORT"] = fc.SMTP.Port
	}
	set("SMTP_USER", fc.SMTP.User)
	set("MAIL_FROM", fc.SMTP.From)
	return out, nil
}

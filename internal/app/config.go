package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/kokoro-shop/storefront/internal/domain/pricing"
)

// Storage backend names accepted by Config.Storage.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (KOKORO_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Storage     string `default:"memory" usage:"Cart persistence backend: memory, file or postgres"`
	DatabaseURL string `usage:"PostgreSQL connection URL, required for the postgres backend (KOKORO_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	StateDir    string `default:"./data/carts" usage:"Directory for cart slot files (file backend)" flag:"state-dir"`
	Pricing     PricingConfig
	Promo       PromoConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// PricingConfig carries the checkout totals parameters as decimal strings.
type PricingConfig struct {
	FreeShippingThreshold string `default:"100" usage:"Subtotal at which shipping becomes free" flag:"free-shipping-threshold"`
	ShippingFee           string `default:"15" usage:"Flat shipping fee below the free threshold" flag:"shipping-fee"`
}

// PromoConfig configures static promo codes and the optional bulk code sets.
type PromoConfig struct {
	Codes        []string `default:"KOKORO20:20,ANIME10:10" usage:"Static promo codes as CODE:PERCENT pairs"`
	BulkFiles    []string `usage:"Gzipped newline-delimited promo code files loaded into a bloom filter" flag:"promo-bulk-files"`
	BulkPercent  float64  `default:"10" usage:"Discount percent granted to bulk-set codes" flag:"promo-bulk-percent"`
	BulkCapacity uint     `default:"1000000" usage:"Expected bulk code count for bloom filter sizing" flag:"promo-bulk-capacity"`
	BulkFPR      float64  `default:"0.001" usage:"Bloom filter false positive rate" flag:"promo-bulk-fpr"`
}

// RateLimitConfig controls the per-client fixed window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cart session cookie)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "KOKORO",
		Files:     []string{"config.yaml", "/etc/kokoro/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch cfg.Storage {
	case StorageMemory, StorageFile:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("database URL is required for the postgres backend: set KOKORO_DATABASE_URL or DATABASE_URL")
		}
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Storage)
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's KOKORO_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

// PricingConfig parses the decimal strings into a pricing.Config.
func (c *Config) PricingConfig() (pricing.Config, error) {
	threshold, err := decimal.NewFromString(c.Pricing.FreeShippingThreshold)
	if err != nil {
		return pricing.Config{}, errors.Wrap(err, "parse free shipping threshold")
	}
	fee, err := decimal.NewFromString(c.Pricing.ShippingFee)
	if err != nil {
		return pricing.Config{}, errors.Wrap(err, "parse shipping fee")
	}
	return pricing.Config{FreeShippingThreshold: threshold, ShippingFee: fee}, nil
}

// PromoRules parses the CODE:PERCENT pairs into discount fractions.
func (c *Config) PromoRules() (map[string]decimal.Decimal, error) {
	hundred := decimal.NewFromInt(100)
	rules := make(map[string]decimal.Decimal, len(c.Promo.Codes))
	for _, pair := range c.Promo.Codes {
		code, percent, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, errors.Errorf("promo code %q: want CODE:PERCENT", pair)
		}
		p, err := decimal.NewFromString(percent)
		if err != nil {
			return nil, errors.Wrapf(err, "promo code %q", code)
		}
		rules[strings.ToUpper(strings.TrimSpace(code))] = p.Div(hundred)
	}
	return rules, nil
}

// BulkFraction returns the bulk-set discount percent as a fraction.
func (c *Config) BulkFraction() decimal.Decimal {
	return decimal.NewFromFloat(c.Promo.BulkPercent).Div(decimal.NewFromInt(100))
}

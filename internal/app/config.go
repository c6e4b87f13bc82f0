package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (DELIVERY_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (DELIVERY_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL     string `default:"redis://localhost:6379/0" usage:"Redis URL for carts and the menu cache (DELIVERY_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	ImageBaseURL string `default:"" usage:"Base URL for menu images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (DELIVERY_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Cart         CartConfig
	MenuCache    MenuCacheConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// CartConfig controls cart session storage.
type CartConfig struct {
	TTL time.Duration `default:"24h" usage:"Idle lifetime of a cart session" flag:"cart-ttl"`
}

// MenuCacheConfig controls the read-through menu cache.
type MenuCacheConfig struct {
	TTL time.Duration `default:"5m" usage:"Menu cache entry lifetime" flag:"menu-cache-ttl"`
}

// RateLimitConfig controls the per-client token buckets. Offer code
// attempts get a tighter budget of their own to slow down code guessing.
type RateLimitConfig struct {
	Max           int           `default:"100" usage:"Max requests per window"`
	Window        time.Duration `default:"1m"  usage:"Rate limit window duration"`
	OfferAttempts int           `default:"10"  usage:"Max offer code attempts per client per offer window" flag:"offer-attempts"`
	OfferWindow   time.Duration `default:"1m"  usage:"Offer code attempt window" flag:"offer-window"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
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
		EnvPrefix: "DELIVERY",
		Files:     []string{"config.yaml", "/etc/delivery/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults(os.Getenv)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database URL is required: set DELIVERY_DATABASE_URL or DATABASE_URL")
	case c.APIKeyPepper == "":
		return errors.New("api key pepper is required: set DELIVERY_API_KEY_PEPPER")
	case c.Cart.TTL <= 0:
		return errors.Errorf("cart TTL must be positive, got %s", c.Cart.TTL)
	case c.MenuCache.TTL <= 0:
		return errors.Errorf("menu cache TTL must be positive, got %s", c.MenuCache.TTL)
	case c.RateLimit.OfferAttempts <= 0:
		return errors.Errorf("offer attempts must be positive, got %d", c.RateLimit.OfferAttempts)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's DELIVERY_-prefixed configuration.
func (c *Config) applyPlatformDefaults(getenv func(string) string) {
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv("DATABASE_URL")
	}
	if v := getenv("REDIS_URL"); v != "" && getenv("DELIVERY_REDIS_URL") == "" {
		c.RedisURL = v
	}
	if port := getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

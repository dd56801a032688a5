package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"golang.org/x/text/currency"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"HTTP listen address"`
	Currency  string `default:"INR" usage:"ISO 4217 code of the catalog prices"`
	Upstream  UpstreamConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Graceful  GracefulConfig
}

// UpstreamConfig points at the DummyJSON API.
type UpstreamConfig struct {
	BaseURL string        `default:"https://dummyjson.com" usage:"DummyJSON base URL" flag:"upstream-url"`
	Timeout time.Duration `default:"10s" usage:"Timeout of one upstream call" flag:"upstream-timeout"`
}

// SessionConfig controls the session cookie and the in-memory store.
type SessionConfig struct {
	CookieName  string        `default:"storefront_session" usage:"Session cookie name"`
	HashKey     string        `usage:"Cookie signing key, random per process when empty" flag:"session-hash-key"`
	BlockKey    string        `usage:"Cookie encryption key of 16, 24 or 32 bytes, optional" flag:"session-block-key"`
	Secure      bool          `default:"false" usage:"Set the Secure cookie attribute"`
	IdleTimeout time.Duration `default:"30m" usage:"Evict sessions idle for this long"`
	MaxSessions int           `default:"100000" usage:"Live session cap, the least recently used is evicted beyond it"`
}

// RateLimitConfig controls the sliding window limit on login attempts.
type RateLimitConfig struct {
	Max    int           `default:"10" usage:"Max login attempts per window"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the PORT variable set by hosting platforms
// (Railway, Render, etc.) onto the listen address.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	if _, err := c.CurrencyUnit(); err != nil {
		return err
	}
	switch len(c.Session.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return errors.Errorf("session block key must be 16, 24 or 32 bytes, got %d", len(c.Session.BlockKey))
	}
	if c.Session.HashKey != "" && len(c.Session.HashKey) < 32 {
		return errors.New("session hash key must be at least 32 bytes")
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("upstream timeout must be positive")
	}
	if c.RateLimit.Max <= 0 {
		return errors.New("rate limit max must be positive")
	}
	return nil
}

// CurrencyUnit parses the configured currency code.
func (c *Config) CurrencyUnit() (currency.Unit, error) {
	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return currency.Unit{}, errors.Wrapf(err, "currency %q", c.Currency)
	}
	return unit, nil
}

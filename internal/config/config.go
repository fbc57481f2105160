package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment (and .env when present).
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"production"`
	Port   string `env:"PORT" envDefault:"3000"`

	DatabaseURL string `env:"DATABASE_URL"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret       string        `env:"JWT_SECRET"`
	AdminPassword   string        `env:"ADMIN_PASSWORD"`
	AdminSessionTTL time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"24h"`
	MagicLinkTTL    time.Duration `env:"MAGIC_LINK_TTL" envDefault:"168h"`

	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY"`
	SupabaseBucket     string `env:"SUPABASE_BUCKET" envDefault:"deliveries"`

	PublicBaseURL          string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:5173"`
	StripeSecretKey        string `env:"STRIPE_SECRET_KEY"`
	MercadoPagoAccessToken string `env:"MERCADOPAGO_ACCESS_TOKEN"`
	MercadoPagoBaseURL     string `env:"MERCADOPAGO_BASE_URL" envDefault:"https://api.mercadopago.com"`
	PixBaseURL             string `env:"PIX_BASE_URL"`
	PixAPIKey              string `env:"PIX_API_KEY"`
	PaymentProviderMock    bool   `env:"PAYMENT_PROVIDER_MOCK" envDefault:"false"`
	DevPaymentSecret       string `env:"DEV_PAYMENT_SECRET"`
}

// insecureSecrets are literals that must never reach a non-dev deployment.
var insecureSecrets = map[string]bool{
	"admin123":                     true,
	"admin":                        true,
	"password":                     true,
	"changeme":                     true,
	"secret":                       true,
	"dev-secret":                   true,
	"your-secret-key":              true,
	"your-jwt-secret":              true,
	"your-super-secret-jwt-key":    true,
	"default-jwt-secret-change-me": true,
}

// ErrInsecureConfig is returned by Validate when a secret is missing or a known default.
var ErrInsecureConfig = errors.New("insecure configuration")

// Load reads .env (if any) and parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// IsDev reports whether the process runs in development mode.
func (c *Config) IsDev() bool { return strings.EqualFold(c.AppEnv, "dev") }

// Validate refuses to start on empty or well-known secrets. Development mode is exempt.
func (c *Config) Validate() error {
	if c.IsDev() {
		return nil
	}
	var bad []string
	check := func(name, val string) {
		v := strings.TrimSpace(val)
		if v == "" || insecureSecrets[strings.ToLower(v)] {
			bad = append(bad, name)
		}
	}
	check("JWT_SECRET", c.JWTSecret)
	check("ADMIN_PASSWORD", c.AdminPassword)
	if c.PaymentProviderMock {
		check("DEV_PAYMENT_SECRET", c.DevPaymentSecret)
	}
	if c.DatabaseURL == "" {
		bad = append(bad, "DATABASE_URL")
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrInsecureConfig, strings.Join(bad, ", "))
	}
	return nil
}

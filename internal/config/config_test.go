package config

import (
	"errors"
	"testing"
	"time"
)

func Test_Load_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ADMIN_SESSION_TTL", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AdminSessionTTL != 24*time.Hour {
		t.Fatalf("want 24h admin ttl, got %s", cfg.AdminSessionTTL)
	}
	if cfg.Port != "3000" {
		t.Fatalf("want default port 3000, got %q", cfg.Port)
	}
}

func Test_Validate_RejectsInsecureSecrets(t *testing.T) {
	cfg := &Config{
		AppEnv:        "production",
		DatabaseURL:   "postgres://x",
		JWTSecret:     "your-secret-key",
		AdminPassword: "  admin123 ",
	}
	err := cfg.Validate()
	if !errors.Is(err, ErrInsecureConfig) {
		t.Fatalf("want ErrInsecureConfig, got %v", err)
	}
}

func Test_Validate_RejectsMissingMockSecret(t *testing.T) {
	cfg := &Config{
		AppEnv:              "production",
		DatabaseURL:         "postgres://x",
		JWTSecret:           "k9$2-long-random",
		AdminPassword:       "s3cure-pass-phrase",
		PaymentProviderMock: true,
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInsecureConfig) {
		t.Fatalf("want ErrInsecureConfig for missing DEV_PAYMENT_SECRET, got %v", err)
	}
}

func Test_Validate_AcceptsStrongSecrets(t *testing.T) {
	cfg := &Config{
		AppEnv:        "production",
		DatabaseURL:   "postgres://x",
		JWTSecret:     "k9$2-long-random",
		AdminPassword: "s3cure-pass-phrase",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func Test_Validate_DevIsExempt(t *testing.T) {
	cfg := &Config{AppEnv: "dev", AdminPassword: "admin123"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dev should be exempt, got %v", err)
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/d")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("BCRYPT_COST", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %s", cfg.Addr)
	}
	if cfg.DatabaseURL != "postgres://u:p@localhost:5432/d" {
		t.Errorf("unexpected database URL %s", cfg.DatabaseURL)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("expected TTL 2h, got %v", cfg.TokenTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("expected bcrypt cost 10, got %d", cfg.BcryptCost)
	}
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET")
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-test-secret")

	t.Run("BadTTL", func(t *testing.T) {
		t.Setenv("TOKEN_TTL", "soon")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for invalid TOKEN_TTL")
		}
	})

	t.Run("NegativeTTL", func(t *testing.T) {
		t.Setenv("TOKEN_TTL", "-1h")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for negative TOKEN_TTL")
		}
	})

	t.Run("BcryptCostOutOfRange", func(t *testing.T) {
		t.Setenv("BCRYPT_COST", "31")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for out-of-range BCRYPT_COST")
		}
	})

	t.Run("BcryptCostNotANumber", func(t *testing.T) {
		t.Setenv("BCRYPT_COST", "cheap")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for non-numeric BCRYPT_COST")
		}
	})
}

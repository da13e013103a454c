package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("DB_TYPE", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.DB.Type != "mysql" || cfg.DB.ConnectionLimit != 10 {
		t.Fatalf("unexpected db defaults: %+v", cfg.DB)
	}
	if !cfg.UsingDevSecret() {
		t.Fatalf("expected dev secret fallback")
	}
	if cfg.RateLimitWindow != 15*time.Minute {
		t.Fatalf("expected 15m window got %s", cfg.RateLimitWindow)
	}
}

func TestFromEnvReleaseRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GIN_MODE", "release")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error without JWT_SECRET in release mode")
	}
}

func TestDurationAcceptsMilliseconds(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "900000")
	t.Setenv("JWT_TTL", "2h")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.RateLimitWindow != 15*time.Minute {
		t.Fatalf("expected 15m got %s", cfg.RateLimitWindow)
	}
	if cfg.JWTTTL != 2*time.Hour {
		t.Fatalf("expected 2h got %s", cfg.JWTTTL)
	}
}

func TestCORSOriginsList(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Fatalf("expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 192.168.0.0/16")
	if cfg, err = FromEnv(); err != nil || len(cfg.TrustedProxies) != 2 {
		t.Fatalf("unexpected proxies %v err=%v", cfg, err)
	}
	t.Setenv("TRUSTED_PROXIES", "not-an-ip")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected invalid proxy rejected")
	}
}

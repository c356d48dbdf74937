package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "booking", SSLMode: "disable"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth: AuthConfig{
			AdminSecrets:    SecretSet{Access: "aa", Refresh: "ar", Stage: "as"},
			CustomerSecrets: SecretSet{Access: "ca", Refresh: "cr", Stage: "cs"},
		},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_MissingSecretIsFatal(t *testing.T) {
	c := validConfig()
	c.Auth.CustomerSecrets.Stage = ""
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error for missing stage secret")
	}
	if !strings.Contains(err.Error(), "JWT_CUSTOMER_STAGE_SECRET") {
		t.Fatalf("expected stage secret in error, got %v", err)
	}
}

func TestValidate_RejectsSharedSecrets(t *testing.T) {
	c := validConfig()
	c.Auth.AdminSecrets.Refresh = c.Auth.AdminSecrets.Access
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for shared admin secrets")
	}
}

func TestValidate_AppliesTTLDefaults(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Auth.AccessTokenTTL != 1*time.Hour {
		t.Fatalf("expected 1h access TTL default, got %v", c.Auth.AccessTokenTTL)
	}
	if c.Auth.RefreshTokenTTL != 30*24*time.Hour {
		t.Fatalf("expected 30d refresh TTL default, got %v", c.Auth.RefreshTokenTTL)
	}
	if c.Auth.StageTokenTTL != 10*time.Minute {
		t.Fatalf("expected 10m stage TTL default, got %v", c.Auth.StageTokenTTL)
	}
	if c.Janitor.Interval != time.Hour || c.Janitor.PendingTTL != 24*time.Hour {
		t.Fatalf("unexpected janitor defaults: %+v", c.Janitor)
	}
}

func TestValidate_RefreshMustOutliveAccess(t *testing.T) {
	c := validConfig()
	c.Auth.AccessTokenTTL = time.Hour
	c.Auth.RefreshTokenTTL = time.Minute
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for refresh TTL below access TTL")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.DB.SSLMode = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validConfig()
	c.DB.SSLMode = ""
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolDefaults(t *testing.T) {
	cfg := PostgresPoolConfig{}.withDefaults()

	if cfg.MaxOpenConns <= 0 || cfg.MaxIdleConns <= 0 {
		t.Fatalf("conn limits not defaulted: %+v", cfg)
	}
	if cfg.MaxIdleConns > cfg.MaxOpenConns {
		t.Fatalf("idle conns %d exceed open conns %d", cfg.MaxIdleConns, cfg.MaxOpenConns)
	}
	if cfg.PingTimeout <= 0 {
		t.Fatalf("ping timeout not defaulted: %s", cfg.PingTimeout)
	}
}

func TestPostgresPoolKeepsExplicitValues(t *testing.T) {
	in := PostgresPoolConfig{MaxOpenConns: 5, ConnMaxLifetime: time.Hour}
	out := in.withDefaults()
	if out.MaxOpenConns != 5 {
		t.Fatalf("MaxOpenConns = %d, want 5", out.MaxOpenConns)
	}
	if out.ConnMaxLifetime != time.Hour {
		t.Fatalf("ConnMaxLifetime = %s, want 1h", out.ConnMaxLifetime)
	}
}

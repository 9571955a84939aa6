package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("MANAGER_PIN", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.ManagerPIN != "" {
		t.Fatalf("expected empty MANAGER_PIN when unset, got %q", cfg.ManagerPIN)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ALLOW_SOLD_DELETE", "")
	t.Setenv("DEFAULT_ITEM_COST", "")
	t.Setenv("METRICS_TTL_SECONDS", "")

	cfg := Load()
	if cfg.AllowSoldDelete {
		t.Fatal("expected sold-delete disabled by default")
	}
	if cfg.DefaultItemCost.String() != "9.2" {
		t.Fatalf("expected default item cost 9.2, got %s", cfg.DefaultItemCost)
	}
	if cfg.MetricsTTLSeconds != 30 {
		t.Fatalf("expected metrics ttl 30, got %d", cfg.MetricsTTLSeconds)
	}
}

func TestLoadRejectsNegativeItemCost(t *testing.T) {
	t.Setenv("DEFAULT_ITEM_COST", "-5")

	cfg := Load()
	if cfg.DefaultItemCost.String() != "9.2" {
		t.Fatalf("expected fallback item cost 9.2, got %s", cfg.DefaultItemCost)
	}
}

package config

import "testing"

func baseConfig() *Config {
	return &Config{
		Port:        "8000",
		Env:         "development",
		DatabaseURL: "postgres://localhost:5432/bridge",
		SearchLimit: 20,
	}
}

func TestValidate(t *testing.T) {
	if err := baseConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateEnv(t *testing.T) {
	cfg := baseConfig()
	cfg.Env = "qa"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown env")
	}
}

func TestValidateSearchLimit(t *testing.T) {
	for _, limit := range []int{0, -1, 101} {
		cfg := baseConfig()
		cfg.SearchLimit = limit
		if err := cfg.Validate(); err == nil {
			t.Errorf("SEARCH_LIMIT %d: expected error", limit)
		}
	}
}

func TestValidateProductionRequiresICD(t *testing.T) {
	cfg := baseConfig()
	cfg.Env = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for production without ICD credentials")
	}

	cfg.ICDClientID = "id"
	cfg.ICDClientSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("production with credentials rejected: %v", err)
	}
}

func TestICDConfigured(t *testing.T) {
	cfg := baseConfig()
	if cfg.ICDConfigured() {
		t.Error("expected ICDConfigured=false without credentials")
	}
	cfg.ICDClientID = "id"
	if cfg.ICDConfigured() {
		t.Error("expected ICDConfigured=false with only client id")
	}
	cfg.ICDClientSecret = "secret"
	if !cfg.ICDConfigured() {
		t.Error("expected ICDConfigured=true with both credentials")
	}
}

package config

import "testing"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "5000" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "5000")
	}
	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Fatalf("MongoURI = %q", cfg.MongoURI)
	}
	if cfg.MongoDatabase != "whatsapp_clone" {
		t.Fatalf("MongoDatabase = %q", cfg.MongoDatabase)
	}
}

func TestLoadRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("JWT_SECRET", "jwt-secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when SESSION_SECRET is missing")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}

func TestIsRelease(t *testing.T) {
	setRequired(t)
	t.Setenv("GIN_MODE", "release")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.IsRelease() {
		t.Fatal("IsRelease() = false in release mode")
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8080")
	t.Setenv("MONGO_DATABASE", "chatwire_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.MongoDatabase != "chatwire_test" {
		t.Fatalf("MongoDatabase = %q, want %q", cfg.MongoDatabase, "chatwire_test")
	}
}

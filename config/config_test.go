package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"HTTP_ADDR", "APP_ENV", "API_BASE_URL", "API_TIMEOUT", "SESSION_TTL",
		"ADDITIONAL_ALLOWED_ORIGINS", "PUSH_RETRIES", "PG_HOST", "FRONTEND_URL",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.APIBaseURL != "http://localhost:8000/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("SessionTTL = %s, want 168h", cfg.SessionTTL)
	}
	if cfg.PushRetries != 2 {
		t.Errorf("PushRetries = %d, want 2", cfg.PushRetries)
	}
	if cfg.JournalEnabled() {
		t.Error("journal must be disabled without PG_HOST")
	}
	if cfg.Production() {
		t.Error("default env must not be production")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://zapi.zdigital.fr/api/")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("APP_ENV", "production")
	t.Setenv("FRONTEND_URL", "https://admin.citydeals.tn")
	t.Setenv("ADDITIONAL_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("PG_HOST", "db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://zapi.zdigital.fr/api" {
		t.Errorf("trailing slash must be trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 3*time.Second {
		t.Errorf("APITimeout = %s", cfg.APITimeout)
	}
	if !cfg.Production() {
		t.Error("Production() = false, want true")
	}
	origins := cfg.AllowedOrigins()
	want := []string{"https://admin.citydeals.tn", "https://a.example", "https://b.example"}
	if len(origins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", origins, want)
	}
	for i := range want {
		if origins[i] != want[i] {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, origins[i], want[i])
		}
	}
	if !cfg.JournalEnabled() {
		t.Error("journal must be enabled with PG_HOST")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"relative base url", map[string]string{"API_BASE_URL": "/api"}},
		{"ftp base url", map[string]string{"API_BASE_URL": "ftp://example.com"}},
		{"negative retries", map[string]string{"API_BASE_URL": "http://x", "PUSH_RETRIES": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("Load: expected error")
			}
		})
	}
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:8000/api")
	t.Setenv("PUSH_TIMEOUT", "soon")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PushTimeout != 60*time.Second {
		t.Errorf("PushTimeout = %s, want 60s", cfg.PushTimeout)
	}
}

func TestMigrateURL_EscapesPassword(t *testing.T) {
	cfg := &Config{
		PGHost: "db", PGPort: "5432", PGUser: "admin", PGPassword: "p@ss/word",
		PGDatabase: "citydeals_admin", PGSSLMode: "disable",
	}
	want := "pgx5://admin:p%40ss%2Fword@db:5432/citydeals_admin?sslmode=disable"
	if got := cfg.MigrateURL(); got != want {
		t.Errorf("MigrateURL() = %q, want %q", got, want)
	}
}

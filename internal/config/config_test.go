package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DEV_DB_DRIVER", "SQLite")
	t.Setenv("DEV_DB_PATH", ":memory:")
	t.Setenv("FRONTEND_URL", "http://localhost:3000/")
	t.Setenv("OWNER_EMAILS", " Owner@Example.com, ,second@example.com ")
	t.Setenv("CALENDAR_TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != ":memory:" {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.FrontendURL != "http://localhost:3000" {
		t.Fatalf("FrontendURL = %q", cfg.FrontendURL)
	}
	if len(cfg.Booking.OwnerEmails) != 2 || !cfg.IsOwnerEmail("OWNER@example.com ") || cfg.IsOwnerEmail("someone@example.com") {
		t.Fatalf("owners = %v", cfg.Booking.OwnerEmails)
	}
	if cfg.Mail.Timeout != 15*time.Second {
		t.Fatalf("mail timeout = %v", cfg.Mail.Timeout)
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("Location = %v", cfg.Location())
	}
	if cfg.GoogleEnabled() {
		t.Fatal("google enabled without credentials")
	}
	if cfg.GetAllowedOrigins() != "*" {
		t.Fatalf("dev origins = %q", cfg.GetAllowedOrigins())
	}
}

func TestLoadRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"app mode", map[string]string{"APP_MODE": "staging"}},
		{"driver", map[string]string{"APP_MODE": "dev", "DEV_DB_DRIVER": "oracle"}},
		{"prod default secret", map[string]string{"APP_MODE": "prod", "PROD_DB_DRIVER": "sqlite"}},
		{"token lifetime", map[string]string{"APP_MODE": "dev", "DEV_DB_DRIVER": "sqlite", "ACCESS_TOKEN_MINUTES": "-5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PROD_JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("Load accepted bad settings")
			}
		})
	}
}

func TestLocationFallback(t *testing.T) {
	cfg := &Config{Google: GoogleConfig{TimeZone: "Nowhere/Special"}}
	if cfg.Location() != time.Local {
		t.Fatal("unknown zone did not fall back to local time")
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Client.Addr != ":3000" || cfg.DevAPI.Addr != ":8000" {
		t.Fatalf("unexpected defaults: %+v", cfg.Client)
	}
	if cfg.Client.APITimeout != 60*time.Second {
		t.Fatalf("api timeout = %s", cfg.Client.APITimeout)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hammer.yaml")
	body := "client:\n  api_base_url: https://api.example.test\n  api_timeout: 15s\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SECURE_COOKIES", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Client.APIBaseURL != "https://api.example.test" {
		t.Fatalf("base url = %q", cfg.Client.APIBaseURL)
	}
	if cfg.Client.APITimeout != 15*time.Second {
		t.Fatalf("timeout = %s", cfg.Client.APITimeout)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("env override not applied, level = %q", cfg.Logging.Level)
	}
	if !cfg.Client.SecureCookies {
		t.Fatal("expected secure cookies from env")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "relative base url", env: map[string]string{"API_BASE_URL": "/api"}, wantErr: "api_base_url"},
		{name: "bad duration", env: map[string]string{"API_TIMEOUT": "soon"}, wantErr: "invalid duration"},
		{name: "bad bool", env: map[string]string{"LOG_PRETTY": "maybe"}, wantErr: "invalid boolean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateClientRequiresSecret(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	if err := cfg.ValidateClient(); err == nil {
		t.Fatal("expected missing secret error")
	}
	cfg.Client.SessionSecret = strings.Repeat("k", 32)
	if err := cfg.ValidateClient(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

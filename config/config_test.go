package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server:  ServerConfig{Port: 8080},
		Auth:    AuthConfig{JWTSecret: "0123456789abcdef", AccessTokenTTL: time.Minute},
		Storage: StorageConfig{RootDir: "/tmp/storage", MaxUploadMB: 5},
		Jobs:    JobsConfig{OrphanSweep: OrphanSweepConfig{Enabled: true, Schedule: "@every 1h"}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, true},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"no storage root", func(c *Config) { c.Storage.RootDir = "  " }, true},
		{"zero upload limit", func(c *Config) { c.Storage.MaxUploadMB = 0 }, true},
		{"bad schedule", func(c *Config) { c.Jobs.OrphanSweep.Schedule = "every now and then" }, true},
		{"bad schedule ignored when disabled", func(c *Config) {
			c.Jobs.OrphanSweep.Enabled = false
			c.Jobs.OrphanSweep.Schedule = "nope"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsSuperAdmin(t *testing.T) {
	a := AuthConfig{SuperAdmins: []string{"Root@Campus.edu", " dean@campus.edu "}}

	if !a.IsSuperAdmin("root@campus.edu") {
		t.Error("expected case-insensitive match")
	}
	if !a.IsSuperAdmin("dean@campus.edu") {
		t.Error("expected trimmed match")
	}
	if a.IsSuperAdmin("faculty@campus.edu") {
		t.Error("unexpected match")
	}
	if a.IsSuperAdmin("") {
		t.Error("empty email must never match")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CAMPUS_AUTH_JWT_SECRET", "env-secret-for-tests-0001")
	t.Setenv("CAMPUS_SERVER_PORT", "9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected default access ttl 15m, got %v", cfg.Auth.AccessTokenTTL)
	}
	if !cfg.Auth.RequireEmailVerification {
		t.Error("expected email verification to default on")
	}
}

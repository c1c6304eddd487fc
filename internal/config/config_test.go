package config

import (
	"strings"
	"testing"
	"time"

	"emojimaker/api/internal/apperr"
)

func validConfig() *AppConfig {
	return &AppConfig{
		Postgres: PostgresConfig{DSN: "postgres://localhost/emojimaker"},
		Storage: StorageConfig{
			Endpoint:  "https://minio.local",
			AccessKey: "ak",
			SecretKey: "sk",
			Bucket:    "emojis",
		},
		Replicate: ReplicateConfig{Token: "r8_test"},
		Auth:      AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateFailsFastOnMissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*AppConfig)
		want string
	}{
		{"replicate token", func(c *AppConfig) { c.Replicate.Token = "" }, "replicate token"},
		{"postgres dsn", func(c *AppConfig) { c.Postgres.DSN = "" }, "postgres dsn"},
		{"storage endpoint", func(c *AppConfig) { c.Storage.Endpoint = "" }, "storage credentials"},
		{"storage secret", func(c *AppConfig) { c.Storage.SecretKey = "" }, "storage credentials"},
		{"jwt secret", func(c *AppConfig) { c.Auth.JWTSecret = "" }, "jwt secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mod(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperr.Is(err, apperr.KindConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Environment != "development" {
		t.Fatalf("unexpected environment: %q", cfg.Environment)
	}
	if cfg.HTTP.Port != 8080 {
		t.Fatalf("unexpected port: %d", cfg.HTTP.Port)
	}
	if cfg.Replicate.PollInterval != 2*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.Replicate.PollInterval)
	}
	if cfg.Replicate.MaxAttempts != 30 {
		t.Fatalf("unexpected max attempts: %d", cfg.Replicate.MaxAttempts)
	}
	if cfg.Storage.Bucket != "emojis" {
		t.Fatalf("unexpected bucket: %q", cfg.Storage.Bucket)
	}
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("EMOJIMAKER_REPLICATE_TOKEN", "r8_env")
	t.Setenv("EMOJIMAKER_HTTP_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Replicate.Token != "r8_env" {
		t.Fatalf("expected env token, got %q", cfg.Replicate.Token)
	}
	if cfg.HTTP.Port != 9090 {
		t.Fatalf("expected env port, got %d", cfg.HTTP.Port)
	}
}

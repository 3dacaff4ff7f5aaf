package infra

import "testing"

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("MEDIA_DIR", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.AppEnv != "development" {
		t.Fatalf("AppEnv = %q, want development", cfg.AppEnv)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.MediaDir == "" {
		t.Fatalf("MediaDir should default to a non-empty path")
	}
}

func TestLoadConfigHonorsExplicitMediaDir(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("MEDIA_DIR", "/tmp/promptcraft-media")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MediaDir != "/tmp/promptcraft-media" {
		t.Fatalf("MediaDir = %q, want /tmp/promptcraft-media", cfg.MediaDir)
	}
}

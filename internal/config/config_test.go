package config

import (
	"log/slog"
	"reflect"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MUSEE_PORT", "MUSEE_CATALOG", "MUSEE_STATIC_DIR", "MUSEE_MEDIA_DIR",
		"MUSEE_ALLOWED_HOSTS", "MUSEE_PUBLIC_DOMAIN", "MUSEE_CORS_ORIGINS",
		"MUSEE_ADMIN_TOKEN", "MUSEE_SESSION_TTL", "MUSEE_LOG_LEVEL",
		"MUSEE_REMOTE_CATALOG", "MUSEE_REMOTE_API_KEY", "TRANSLATION_PROVIDER",
		"TRANSLATION_MODEL", "OLLAMA_URL", "OPENAI_API_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Port != "8888" || cfg.StaticDir != "public" || cfg.SessionTTL != 10*time.Minute {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.AllowedHosts != nil || cfg.PublicDomain != "" {
		t.Errorf("Expected no allowed hosts, got %v / %q", cfg.AllowedHosts, cfg.PublicDomain)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"*"}) || cfg.TranslationProvider != "ollama" {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MUSEE_PORT", "3000")
	t.Setenv("MUSEE_ALLOWED_HOSTS", " musee.example.sn, ,www.musee.example.sn ")
	t.Setenv("MUSEE_SESSION_TTL", "90s")
	t.Setenv("TRANSLATION_PROVIDER", "gemini")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Port != "3000" || cfg.SessionTTL != 90*time.Second || cfg.TranslationProvider != "gemini" {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.AllowedHosts, []string{"musee.example.sn", "www.musee.example.sn"}) {
		t.Errorf("Unexpected hosts %v", cfg.AllowedHosts)
	}
	if cfg.PublicDomain != "musee.example.sn" {
		t.Errorf("Public domain should default to first allowed host, got %q", cfg.PublicDomain)
	}
}

func TestFromEnvInvalidTTL(t *testing.T) {
	for _, ttl := range []string{"soon", "-5m", "0s"} {
		clearEnv(t)
		t.Setenv("MUSEE_SESSION_TTL", ttl)
		if _, err := FromEnv(); err == nil {
			t.Errorf("Expected error for TTL %q", ttl)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, expected := range tests {
		got, err := ParseLevel(name)
		if err != nil || got != expected {
			t.Errorf("ParseLevel(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

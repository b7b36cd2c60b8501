// Package config reads the server settings from the environment. The root
// command loads .env first, so values there apply too.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds every setting the commands share
type Config struct {
	Port          string
	CatalogPath   string
	StaticDir     string
	MediaDir      string
	AllowedHosts  []string
	PublicDomain  string
	CORSOrigins   []string
	AdminToken    string
	SessionTTL    time.Duration
	LogLevel      string
	RemoteCatalog string
	RemoteAPIKey  string

	TranslationProvider string
	TranslationModel    string
	OllamaURL           string
	OpenAIKey           string
	GeminiKey           string
}

// FromEnv builds a Config from MUSEE_* and provider variables, applying defaults
func FromEnv() (Config, error) {
	cfg := Config{
		Port:          getenv("MUSEE_PORT", "8888"),
		CatalogPath:   os.Getenv("MUSEE_CATALOG"),
		StaticDir:     getenv("MUSEE_STATIC_DIR", "public"),
		MediaDir:      getenv("MUSEE_MEDIA_DIR", "media"),
		AllowedHosts:  List(os.Getenv("MUSEE_ALLOWED_HOSTS")),
		PublicDomain:  os.Getenv("MUSEE_PUBLIC_DOMAIN"),
		CORSOrigins:   List(getenv("MUSEE_CORS_ORIGINS", "*")),
		AdminToken:    os.Getenv("MUSEE_ADMIN_TOKEN"),
		SessionTTL:    10 * time.Minute,
		LogLevel:      getenv("MUSEE_LOG_LEVEL", "info"),
		RemoteCatalog: os.Getenv("MUSEE_REMOTE_CATALOG"),
		RemoteAPIKey:  os.Getenv("MUSEE_REMOTE_API_KEY"),

		TranslationProvider: getenv("TRANSLATION_PROVIDER", "ollama"),
		TranslationModel:    os.Getenv("TRANSLATION_MODEL"),
		OllamaURL:           os.Getenv("OLLAMA_URL"),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		GeminiKey:           os.Getenv("GEMINI_API_KEY"),
	}

	if ttl := os.Getenv("MUSEE_SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MUSEE_SESSION_TTL %q: %w", ttl, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("MUSEE_SESSION_TTL must be positive, got %s", d)
		}
		cfg.SessionTTL = d
	}

	if cfg.PublicDomain == "" && len(cfg.AllowedHosts) > 0 {
		cfg.PublicDomain = cfg.AllowedHosts[0]
	}
	return cfg, nil
}

// List splits a comma separated value, dropping blanks
func List(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseLevel maps a level name onto slog.Level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

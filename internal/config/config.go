package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env             string
	HTTPPort        string
	DatabaseURL     string
	SessionTTLHours int
	ExportSecret    string
	ExportDir       string
	RateRPS         int
	Migrate         bool
}

func Load() Config {
	// Missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := Config{
		Env:             get("APP_ENV", "dev"),
		HTTPPort:        get("HTTP_PORT", "8080"),
		DatabaseURL:     get("DATABASE_URL", "straintree.db"),
		SessionTTLHours: getInt("SESSION_TTL_HOURS", 24*7),
		ExportSecret:    get("EXPORT_SECRET", "changeme-secret"),
		ExportDir:       get("EXPORT_DIR", "exports"),
		RateRPS:         getInt("RATE_RPS", 100),
		Migrate:         os.Getenv("APP_MIGRATE") == "true",
	}
	return cfg
}

// UsesPostgres reports whether DatabaseURL points at postgres; anything else
// is treated as a sqlite path.
func (c Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// SQLitePath strips an optional sqlite:// scheme from DatabaseURL.
func (c Config) SQLitePath() string {
	return strings.TrimPrefix(c.DatabaseURL, "sqlite://")
}

func get(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

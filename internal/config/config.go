package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	LogLevel        string
	NatsURL         string
	NatsToken       string
	ImportDir       string
	MapOmittedMedia bool
}

func Load() Config {
	// Missing .env is fine; env vars and defaults still apply.
	_ = godotenv.Load()

	return Config{
		Port:            envInt("CHATMERGE_PORT", 8760),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		NatsURL:         envStr("NATS_URL", ""),
		NatsToken:       envStr("NATS_TOKEN", ""),
		ImportDir:       envStr("CHATMERGE_IMPORT_DIR", ""),
		MapOmittedMedia: envBool("CHATMERGE_MAP_OMITTED_MEDIA", false),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

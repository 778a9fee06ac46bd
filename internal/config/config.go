// Package config reads server settings from the environment. Missing
// variables fall back to the defaults the game shipped with.
package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port             string
	MaxUsers         int
	AdminSecret      string // empty means open admin mode
	CORSOrigins      []string
	RoundDurationSec int
	DatabaseURL      string // empty disables persistence
}

func FromEnv() Config {
	return Config{
		Port:             envOr("PORT", "3001"),
		MaxUsers:         envIntOr("MAX_USERS", 10),
		AdminSecret:      os.Getenv("ADMIN_SECRET"),
		CORSOrigins:      splitOrigins(envOr("CORS_ORIGIN", "*")),
		RoundDurationSec: envIntOr("ROUND_DURATION_SEC", 10),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

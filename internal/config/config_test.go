package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "MAX_USERS", "ADMIN_SECRET", "CORS_ORIGIN", "ROUND_DURATION_SEC", "DATABASE_URL"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	require.Equal(t, "3001", cfg.Port)
	require.Equal(t, 10, cfg.MaxUsers)
	require.Empty(t, cfg.AdminSecret)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.Equal(t, 10, cfg.RoundDurationSec)
	require.Empty(t, cfg.DatabaseURL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("MAX_USERS", "25")
	t.Setenv("ADMIN_SECRET", "hunter2")
	t.Setenv("CORS_ORIGIN", "https://game.example.com, https://admin.example.com")
	t.Setenv("ROUND_DURATION_SEC", "30")

	cfg := FromEnv()
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 25, cfg.MaxUsers)
	require.Equal(t, "hunter2", cfg.AdminSecret)
	require.Equal(t, []string{"https://game.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	require.Equal(t, 30, cfg.RoundDurationSec)
}

func TestFromEnvRejectsGarbageNumbers(t *testing.T) {
	t.Setenv("MAX_USERS", "lots")
	t.Setenv("ROUND_DURATION_SEC", "-5")

	cfg := FromEnv()
	require.Equal(t, 10, cfg.MaxUsers)
	require.Equal(t, 10, cfg.RoundDurationSec)
}

package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"ENV", "AUTH_STORE", "SESSION_BACKEND", "PENDING_TTL", "SESSION_TTL",
		"CHALLENGE_TTL", "TOTP_SKEW", "CORS_ALLOWED_ORIGINS", "COOKIE_SECURE", "PORT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, StoreSQLite, cfg.Store)
	require.Equal(t, SessionBackendStore, cfg.SessionBackend)
	require.Equal(t, 10*time.Minute, cfg.PendingTTL)
	require.Equal(t, time.Hour, cfg.SessionTTL)
	require.Equal(t, 10*time.Minute, cfg.ChallengeTTL)
	require.Equal(t, uint(1), cfg.TOTPSkew)
	require.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	require.False(t, cfg.CookieSecure, "dev serves plain http")
	require.Equal(t, 8080, cfg.Port)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("AUTH_STORE", "Mongo")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("PENDING_TTL", "5")
	t.Setenv("TOTP_SKEW", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, StoreMongo, cfg.Store)
	require.Equal(t, SessionBackendRedis, cfg.SessionBackend)
	require.Equal(t, 3, cfg.RedisDB)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.Equal(t, 5*time.Minute, cfg.PendingTTL, "bare integers are minutes")
	require.Equal(t, uint(2), cfg.TOTPSkew)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	require.True(t, cfg.CookieSecure, "secure by default outside dev")
}

func TestLoadConfig_ZeroSkewIsHonored(t *testing.T) {
	t.Setenv("TOTP_SKEW", "0")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, uint(0), cfg.TOTPSkew)

	t.Setenv("TOTP_SKEW", "-3")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	require.Equal(t, uint(0), cfg.TOTPSkew, "negative values mean no skew")
}

func TestLoadConfig_Rejects(t *testing.T) {
	cases := map[string][2]string{
		"unknown store":   {"AUTH_STORE", "postgres"},
		"unknown backend": {"SESSION_BACKEND", "memcached"},
		"negative ttl":    {"SESSION_TTL", "-1m"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestGetEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "eight")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "soon")

	require.Equal(t, 7, getEnvIntOrDefault("X_INT", 7))
	require.True(t, getEnvBoolOrDefault("X_BOOL", true))
	require.Equal(t, time.Second, getEnvDurationOrDefault("X_DUR", time.Second))
	require.Equal(t, []string{"d"}, getEnvListOrDefault("X_MISSING", []string{"d"}))
}

package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-appeals-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, v := range []string{"API_BASE_URL", "REQUEST_TIMEOUT", "PROBE_ENABLED", "PROBE_TIMEOUT", "RATE_LIMIT_RPS", "STORE_BACKEND", "LANGUAGE", "ENV"} {
		t.Setenv(v, "")
	}
	c := config.New()

	require.Equal(t, "https://eappeal.uz/api", c.GetBaseURL())
	require.Equal(t, 30*time.Second, c.GetRequestTimeout())
	require.True(t, c.GetProbeEnabled())
	require.Equal(t, 5*time.Second, c.GetProbeTimeout())
	require.Zero(t, c.GetRateLimit())
	require.Equal(t, config.StoreBackendFile, c.GetStoreBackend())
	require.Equal(t, "ru", c.GetLanguage())
	require.Equal(t, "DEV", c.GetEnv())
}

func TestOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:8000/api/")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("PROBE_ENABLED", "false")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("STORE_BACKEND", "REDIS")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LANGUAGE", "UZ")
	c := config.New()

	require.Equal(t, "http://localhost:8000/api", c.GetBaseURL())
	require.Equal(t, 5*time.Second, c.GetRequestTimeout())
	require.False(t, c.GetProbeEnabled())
	require.Equal(t, 2.5, c.GetRateLimit())
	require.Equal(t, config.StoreBackendRedis, c.GetStoreBackend())
	require.Equal(t, 3, c.GetRedisDB())
	require.Equal(t, "uz", c.GetLanguage())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	t.Setenv("PROBE_ENABLED", "maybe")
	t.Setenv("STORE_BACKEND", "s3")
	t.Setenv("REDIS_DB", "x")
	c := config.New()

	require.Equal(t, config.DefaultRequestTimeout, c.GetRequestTimeout())
	require.True(t, c.GetProbeEnabled())
	require.Equal(t, config.StoreBackendFile, c.GetStoreBackend())
	require.Zero(t, c.GetRedisDB())
}

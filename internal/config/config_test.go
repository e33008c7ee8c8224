package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.AuthSecret, "AUTH_SECRET must stay empty when unset")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PRODUCT_CACHE_TTL_SECONDS", "0")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "480")
	t.Setenv("EVENTS_CHANNEL", "savdo.sales")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Address())
	assert.Equal(t, 30*time.Second, cfg.ProductCacheTTL())
	assert.Equal(t, 480*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, "savdo.sales", cfg.EventsChannel)
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	assert.Error(t, err)
}

func TestIsDev(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.True(t, cfg.AutoMigrate)
}

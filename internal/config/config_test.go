package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("DATA_DIR", "/tmp/rooms")

	cfg := Load()
	assert.Equal(t, StoreFile, cfg.StoreDriver)
	assert.False(t, cfg.MySQLEnabled())
	assert.Equal(t, filepath.Join("/tmp/rooms", "rooms.json"), cfg.RoomsFile)
	assert.Equal(t, filepath.Join("/tmp/rooms", "reservations.json"), cfg.ReservationsFile)
	assert.Equal(t, "file:"+filepath.Join("/tmp/rooms", "workorders.db"), cfg.WorkOrderDSN)
	assert.Equal(t, 60, cfg.AccessTTLMin)
	assert.Equal(t, 7, cfg.RefreshTTLDays)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "reservations.events", cfg.EventsQueue)
	assert.False(t, cfg.EventsEnabled)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "MySQL")
	t.Setenv("TIMEZONE", "Europe/Paris")
	t.Setenv("EVENTS_ENABLED", "yes")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "5")

	cfg := Load()
	assert.True(t, cfg.MySQLEnabled())
	assert.Equal(t, "Europe/Paris", cfg.Location.String())
	assert.True(t, cfg.EventsEnabled)
	assert.Equal(t, 5, cfg.AccessTTLMin)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ROOMRES_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Cleanup(func() { _ = os.Unsetenv("ROOMRES_TEST_VALUE") })

	require.NoError(t, LoadEnvFile())
	assert.Equal(t, "from-file", os.Getenv("ROOMRES_TEST_VALUE"))
}

func TestLoadEnvFileMissingIsIgnored(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, LoadEnvFile())
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "bogus")

	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
	assert.Equal(t, time.Second, cfg.TTL)
}

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamikazebr/parkspot/internal/apperr"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), map[string]string{
		"PARKSPOT_DATA_DIR": t.TempDir(),
	})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
	assert.Zero(t, cfg.FeedCoalesce)
	assert.Equal(t, "firestore", cfg.Remote.Backend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Remote.MongoURI)
	assert.Equal(t, "parkspot", cfg.Remote.MongoDatabase)
	assert.Equal(t, "file", cfg.Local.Backend)
	assert.Equal(t, "parkspot:", cfg.Local.RedisPrefix)
	assert.Equal(t, "0.0.0.0:8080", cfg.API.Addr())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), map[string]string{
		"PARKSPOT_ENV":           "production",
		"PARKSPOT_DATA_DIR":      "/var/lib/parkspot",
		"PARKSPOT_REMOTE":        "postgres",
		"DATABASE_URL":           "postgres://localhost/parkspot",
		"PARKSPOT_LOCAL":         "redis",
		"REDIS_DB":               "2",
		"PARKSPOT_STORE_TIMEOUT": "3s",
		"PARKSPOT_FEED_COALESCE": "250ms",
		"API_PORT":               "9090",
		"PARKSPOT_LAT":           "21.1458",
		"PARKSPOT_LON":           "79.0882",
	})
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/var/lib/parkspot", cfg.DataDir)
	assert.Equal(t, "postgres", cfg.Remote.Backend)
	assert.Equal(t, "redis", cfg.Local.Backend)
	assert.Equal(t, 2, cfg.Local.RedisDB)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.FeedCoalesce)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "21.1458", cfg.Location.Latitude)
}

func TestLoadFrom_DefaultDataDir(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), map[string]string{})
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoadFrom_RejectsUnknownBackend(t *testing.T) {
	_, err := LoadFrom(context.Background(), map[string]string{
		"PARKSPOT_DATA_DIR": t.TempDir(),
		"PARKSPOT_REMOTE":   "cassandra",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestLoadFrom_BadDuration(t *testing.T) {
	_, err := LoadFrom(context.Background(), map[string]string{
		"PARKSPOT_DATA_DIR":      t.TempDir(),
		"PARKSPOT_STORE_TIMEOUT": "soon",
	})
	assert.Error(t, err)
}

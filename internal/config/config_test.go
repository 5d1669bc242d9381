package config_test

import (
	"testing"

	"github.com/bamaao/bassinet-server/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServicePort)
	assert.Equal(t, "./assets", cfg.StagingDir)
	assert.Equal(t, "https://fullnode.testnet.sui.io:443", cfg.SuiRPCURL)
	assert.False(t, cfg.ArchiveEnabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVICE_PORT", "9090")
	t.Setenv("STAGING_DIR", "/var/media")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ARCHIVE_ENABLED", "true")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServicePort)
	assert.Equal(t, "/var/media", cfg.StagingDir)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.ArchiveEnabled)
}

func TestGetDSN(t *testing.T) {
	t.Setenv("MYSQL_USER", "svc")
	t.Setenv("MYSQL_PASSWORD", "secret")
	t.Setenv("MYSQL_HOST", "db.internal")
	t.Setenv("MYSQL_PORT", "3307")
	t.Setenv("MYSQL_DATABASE", "bassinet")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "svc:secret@tcp(db.internal:3307)/bassinet?charset=utf8mb4&parseTime=True&loc=Local", cfg.GetDSN())
}

func TestGetRedisAddr(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "cache.internal:6380", cfg.GetRedisAddr())
}

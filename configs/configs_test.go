package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, []string{"main"}, cfg.Databases)
	assert.Equal(t, "main", cfg.DefaultDatabase)
	assert.Equal(t, 30*time.Second, cfg.BreakerTimeout)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestLoadConfig_EnvFileAndOverrides(t *testing.T) {
	//Arrange
	dir := t.TempDir()
	env := "STORE_DRIVER=postgres\nDATABASES=main,archive\nRETRY_BACKOFF=1s\nMONGO_TRANSACTIONS=true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("DEFAULT_DATABASE", "archive")

	//Act
	cfg, err := LoadConfig(dir)

	//Assert
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.StoreDriver)
	assert.Equal(t, []string{"main", "archive"}, cfg.Databases)
	assert.Equal(t, "archive", cfg.DefaultDatabase)
	assert.Equal(t, time.Second, cfg.RetryBackoff)
	assert.True(t, cfg.MongoTransactions)
}

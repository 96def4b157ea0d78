package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SafeMPC/identity-core/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngineConfig(t *testing.T) {
	cfg := config.DefaultEngineConfig()

	assert.Equal(t, zerolog.InfoLevel, cfg.Logger.Level)
	assert.Equal(t, "v1/pbkdf2-sha256", cfg.KDF.Version)
	assert.Equal(t, 64, cfg.KDF.MaxAttempts)
	assert.Equal(t, "aes-256-gcm", cfg.Cipher.Algorithm)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 1024, cfg.Cache.Capacity)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "mainnet", cfg.Bitcoin.Network)
	assert.Equal(t, "ethereum", cfg.Stealth.AddressFormat)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("IDENTITY_KDF_VERSION", "v2")
	t.Setenv("IDENTITY_CACHE_CAPACITY", "16")
	t.Setenv("IDENTITY_CACHE_TTL", "30s")
	t.Setenv("IDENTITY_LOGGER_LEVEL", "debug")
	t.Setenv("IDENTITY_STEALTH_ADDRESS_FORMAT", "bitcoin")

	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "v2", cfg.KDF.Version)
	assert.Equal(t, 16, cfg.Cache.Capacity)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, zerolog.DebugLevel, cfg.Logger.Level)
	assert.Equal(t, "bitcoin", cfg.Stealth.AddressFormat)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	content := []byte(`
cipher:
  algorithm: xchacha20-poly1305
cache:
  enabled: false
bitcoin:
  network: testnet3
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := config.Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "xchacha20-poly1305", cfg.Cipher.Algorithm)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "testnet3", cfg.Bitcoin.Network)

	_, err = config.Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEngine_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Engine)
	}{
		{"kdf version", func(c *config.Engine) { c.KDF.Version = "v9" }},
		{"max attempts", func(c *config.Engine) { c.KDF.MaxAttempts = 0 }},
		{"algorithm", func(c *config.Engine) { c.Cipher.Algorithm = "des" }},
		{"cache capacity", func(c *config.Engine) { c.Cache.Capacity = 0 }},
		{"cache ttl", func(c *config.Engine) { c.Cache.TTL = -time.Second }},
		{"bitcoin network", func(c *config.Engine) { c.Bitcoin.Network = "litecoin" }},
		{"address format", func(c *config.Engine) { c.Stealth.AddressFormat = "solana" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultEngineConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	// 关闭缓存时不检查容量
	cfg := config.DefaultEngineConfig()
	cfg.Cache.Enabled = false
	cfg.Cache.Capacity = 0
	assert.NoError(t, cfg.Validate())
}

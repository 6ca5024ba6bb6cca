package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "X-Actor-ID", cfg.IdentityHeader)
	assert.Zero(t, cfg.RBACCacheTTL)
	assert.False(t, cfg.CacheEnabled())
	assert.True(t, cfg.SeedOnStart)
}

func TestLoadConfigCacheRequiresRedis(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RBAC_CACHE_TTL", "30s")
	t.Setenv("REDIS_ADDR", "")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.RBACCacheTTL)
	assert.True(t, cfg.CacheEnabled())
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		return Config{StoreDriver: StoreDriverPostgres, PGDSN: "postgres://x", IdentityHeader: "X-Actor-ID"}
	}
	cases := map[string]func(*Config){
		"unknown driver":   func(c *Config) { c.StoreDriver = "sqlite" },
		"postgres no dsn":  func(c *Config) { c.PGDSN = " " },
		"negative ttl":     func(c *Config) { c.RBACCatalogTTL = -time.Second },
		"blank header":     func(c *Config) { c.IdentityHeader = "" },
		"negative limit":   func(c *Config) { c.RateLimitPerMinute = -1 },
		"cache w/o server": func(c *Config) { c.RBACCacheTTL = time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	cfg := base()
	assert.NoError(t, cfg.Validate())
}

func TestIsProduction(t *testing.T) {
	var nilCfg *Config
	assert.False(t, nilCfg.IsProduction())
	assert.True(t, (&Config{AppEnv: "production"}).IsProduction())
}

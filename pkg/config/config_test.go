package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "DB_DRIVER", "DATABASE_URL", "REDIS_ADDR",
		"DEFAULT_LOW_STOCK_THRESHOLD", "STRICT_DECREMENTS", "AUDIT_WORKERS", "AUDIT_RETRIES"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Contains(t, cfg.DSN, "host=localhost")
	assert.Equal(t, 5, cfg.DefaultLowStockThreshold)
	assert.False(t, cfg.StrictDecrements)
	assert.Equal(t, 4, cfg.AuditWorkers)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DEFAULT_LOW_STOCK_THRESHOLD", "3")
	t.Setenv("STRICT_DECREMENTS", "true")
	t.Setenv("AUDIT_WORKERS", "0")

	cfg := FromEnv()

	assert.Equal(t, "8081", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "variants.db", cfg.DSN)
	assert.Equal(t, 3, cfg.DefaultLowStockThreshold)
	assert.True(t, cfg.StrictDecrements)
	assert.Equal(t, 4, cfg.AuditWorkers, "non-positive worker count falls back to default")
}

func TestFromEnv_DatabaseURLWins(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DATABASE_URL", "user:pw@tcp(db:3306)/stock")

	cfg := FromEnv()

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "user:pw@tcp(db:3306)/stock", cfg.DSN)
}

func TestNormalizeDriver(t *testing.T) {
	assert.Equal(t, "postgres", normalizeDriver("PostgreSQL"))
	assert.Equal(t, "mysql", normalizeDriver(" mysql "))
	assert.Equal(t, "postgres", normalizeDriver("oracle"))
}

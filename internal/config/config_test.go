package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadMemoryDriverNeedsNoDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "")
	t.Setenv("EVENTS_ENABLED", "true")
	t.Setenv("SESSION_TTL", "")

	cfg := Load()
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.EventsEnabled, "events need a broker URL")
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
}

func TestLoadMySQLReadsConnection(t *testing.T) {
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASS", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "invoicing")

	cfg := LoadStore()
	assert.Equal(t, DriverMySQL, cfg.StoreDriver)
	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestRateLimitDefaultsAreClamped(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, time.Minute, cfg.RefillInterval)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
	assert.Equal(t, "ip_username", cfg.KeyStrategy)
}

func TestCacheMethodsAreNormalised(t *testing.T) {
	t.Setenv("CACHE_METHODS", " get, head ,")
	cfg := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, "invcache", cfg.Prefix)
}

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(map[string]string{"JWT_SECRET": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, storagePostgres, cfg.StorageDriver)
	assert.Equal(t, 3*time.Second, cfg.DBTimeout)
	assert.Equal(t, uint(3), cfg.TxMaxRetries)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.EnableHSTS)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	cfg, err := loadConfig(map[string]string{
		"JWT_SECRET":           "s3cret",
		"STORAGE_DRIVER":       "memory",
		"CORS_ALLOWED_ORIGINS": "http://a.example,http://b.example",
		"TX_MAX_RETRIES":       "5",
		"ENABLE_HSTS":          "true",
		"DB_TIMEOUT":           "750ms",
	})
	require.NoError(t, err)

	assert.Equal(t, storageMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, uint(5), cfg.TxMaxRetries)
	assert.True(t, cfg.EnableHSTS)
	assert.Equal(t, 750*time.Millisecond, cfg.DBTimeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"empty secret", map[string]string{"JWT_SECRET": ""}},
		{"unknown driver", map[string]string{"JWT_SECRET": "x", "STORAGE_DRIVER": "sqlite"}},
		{"bad duration", map[string]string{"JWT_SECRET": "x", "DB_TIMEOUT": "soon"}},
		{"negative db timeout", map[string]string{"JWT_SECRET": "x", "DB_TIMEOUT": "-1s"}},
		{"zero burst", map[string]string{"JWT_SECRET": "x", "RATE_LIMIT_BURST": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(tt.environ)
			assert.Error(t, err)
		})
	}
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://***@db:5432/x", redactDSN("postgres://user:pw@db:5432/x"))
	assert.Equal(t, "not a dsn", redactDSN("not a dsn"))
}

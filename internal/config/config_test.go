package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "KAFKA_BROKERS",
		"CORS_ALLOWED_ORIGINS", "SUPPORTED_LANGUAGES", "FIELD_ENCRYPTION_KEY",
		"DB_MAX_OPEN_CONNS", "DB_CONN_MAX_LIFETIME", "LOGIN_RATE_BURST", "STORAGE_USE_SSL",
		"STORAGE_PUBLIC_DOMAIN",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("DATABASE_URL", "postgres://localhost/prodriver")
	t.Setenv("SESSION_SECRET", strings.Repeat("s", 32))
}

func TestLoadConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, time.Hour, cfg.DBConnLifetime)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Nil(t, cfg.FieldEncryption)
	assert.Equal(t, "en", cfg.SourceLanguage())
	assert.Equal(t, 5, cfg.LoginRateLimit.Burst)
	assert.True(t, cfg.Storage.UseSSL)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SUPPORTED_LANGUAGES", "HI,en,hi,english")
	t.Setenv("DB_CONN_MAX_LIFETIME", "15m")
	t.Setenv("STORAGE_USE_SSL", "false")
	t.Setenv("STORAGE_PUBLIC_DOMAIN", "https://cdn.example.com/")
	t.Setenv("FIELD_ENCRYPTION_KEY", strings.Repeat("ab", 32))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"hi", "en"}, cfg.Languages)
	assert.Equal(t, "hi", cfg.SourceLanguage())
	assert.Equal(t, 15*time.Minute, cfg.DBConnLifetime)
	assert.False(t, cfg.Storage.UseSSL)
	assert.Equal(t, "https://cdn.example.com", cfg.Storage.PublicDomain)
	assert.Len(t, cfg.FieldEncryption, 32)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL"},
		{"short secret", map[string]string{"SESSION_SECRET": "short"}, "SESSION_SECRET"},
		{"bad key", map[string]string{"FIELD_ENCRYPTION_KEY": "zz"}, "FIELD_ENCRYPTION_KEY"},
		{"no languages", map[string]string{"SUPPORTED_LANGUAGES": "english"}, "SUPPORTED_LANGUAGES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "HTTP_PORT", "DATABASE_URL", "LOG_LEVEL", "JWT_SECRET",
		"TOKEN_TTL_HOURS", "DISPLAY_TIMEZONE", "EXPIRED_JOB_AT", "FINISHED_JOB_AT",
		"JOB_TIMEOUT_SEC", "NOTIFY_DEDUP", "TELEGRAM_TOKEN", "REDIS_URL",
		"CACHE_TTL_SEC", "KAFKA_BROKERS", "KAFKA_NOTIFY_TOPIC", "CORS_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "todo_planner.db", cfg.DatabaseURL)
	assert.Equal(t, "Europe/Vilnius", cfg.DisplayTimezone)
	assert.Equal(t, "09:00", cfg.ExpiredJobAt)
	assert.Equal(t, "08:00", cfg.FinishedJobAt)
	assert.True(t, cfg.NotifyDedup)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL())
	assert.Equal(t, time.Minute, cfg.JobTimeout())
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "todo.toml")
	content := `
http_port = "9000"
jwt_secret = "from-file"
display_timezone = "UTC"
kafka_brokers = ["k1:9092", "k2:9092"]
notify_dedup = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.HTTPPort)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "UTC", cfg.DisplayTimezone)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.NotifyDedup)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TOKEN_TTL_HOURS", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.TokenTTLHours)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := Load()
	assert.Error(t, err)
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config keeps runtime settings for the service.
type Config struct {
	HTTPPort        string   `toml:"http_port"`
	DatabaseURL     string   `toml:"database_url"`
	LogLevel        string   `toml:"log_level"`
	JWTSecret       string   `toml:"jwt_secret"`
	TokenTTLHours   int      `toml:"token_ttl_hours"`
	DisplayTimezone string   `toml:"display_timezone"`
	ExpiredJobAt    string   `toml:"expired_job_at"`
	FinishedJobAt   string   `toml:"finished_job_at"`
	JobTimeoutSec   int      `toml:"job_timeout_sec"`
	NotifyDedup     bool     `toml:"notify_dedup"`
	TelegramToken   string   `toml:"telegram_token"`
	RedisURL        string   `toml:"redis_url"`
	CacheTTLSec     int      `toml:"cache_ttl_sec"`
	KafkaBrokers    []string `toml:"kafka_brokers"`
	KafkaTopic      string   `toml:"kafka_notify_topic"`
	CORSOrigins     []string `toml:"cors_origins"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		HTTPPort:        "8080",
		DatabaseURL:     "todo_planner.db",
		LogLevel:        "info",
		TokenTTLHours:   24,
		DisplayTimezone: "Europe/Vilnius",
		ExpiredJobAt:    "09:00",
		FinishedJobAt:   "08:00",
		JobTimeoutSec:   60,
		NotifyDedup:     true,
		CacheTTLSec:     300,
		KafkaTopic:      "todo-notifications",
		CORSOrigins:     []string{"http://localhost:3000"},
	}
}

// Load reads configuration from an optional TOML file (CONFIG_FILE) and then
// environment variables, which win over file values.
func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTLHours <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive")
	}
	if c.JobTimeoutSec <= 0 {
		return fmt.Errorf("JOB_TIMEOUT_SEC must be positive")
	}
	return nil
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c Config) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSec) * time.Second
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

func applyEnv(cfg *Config) {
	setString(&cfg.HTTPPort, "HTTP_PORT")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setInt(&cfg.TokenTTLHours, "TOKEN_TTL_HOURS")
	setString(&cfg.DisplayTimezone, "DISPLAY_TIMEZONE")
	setString(&cfg.ExpiredJobAt, "EXPIRED_JOB_AT")
	setString(&cfg.FinishedJobAt, "FINISHED_JOB_AT")
	setInt(&cfg.JobTimeoutSec, "JOB_TIMEOUT_SEC")
	setBool(&cfg.NotifyDedup, "NOTIFY_DEDUP")
	setString(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	setString(&cfg.RedisURL, "REDIS_URL")
	setInt(&cfg.CacheTTLSec, "CACHE_TTL_SEC")
	setSlice(&cfg.KafkaBrokers, "KAFKA_BROKERS")
	setString(&cfg.KafkaTopic, "KAFKA_NOTIFY_TOPIC")
	setSlice(&cfg.CORSOrigins, "CORS_ORIGINS")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setSlice(dst *[]string, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}

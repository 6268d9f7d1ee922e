// Package config собирает настройки сервиса из окружения и необязательного .env файла.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все настройки админки CityDeals
type Config struct {
	HTTPAddr string
	Env      string

	// Удалённый REST API CityDeals
	APIBaseURL string
	APITimeout time.Duration

	// Сессия (cookie)
	SessionTTL time.Duration

	// Разрешённые origins для CORS и WebSocket
	FrontendURL              string
	AdditionalAllowedOrigins []string
	AllowAllOrigins          bool

	// Push (Expo)
	ExpoPushURL     string
	ExpoAccessToken string
	PushTimeout     time.Duration
	PushRetries     int

	// Журнал действий (PostgreSQL, необязательный)
	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGDatabase string
	PGSSLMode  string
}

// Load читает .env (если есть), затем переменные окружения.
// Отсутствие .env не ошибка: в контейнере всё приходит из окружения.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] .env не найден, используем переменные окружения")
	}

	cfg := &Config{
		HTTPAddr:                 env("HTTP_ADDR", ":8080"),
		Env:                      env("APP_ENV", "development"),
		APIBaseURL:               strings.TrimSuffix(env("API_BASE_URL", "http://localhost:8000/api"), "/"),
		APITimeout:               envDuration("API_TIMEOUT", 15*time.Second),
		SessionTTL:               envDuration("SESSION_TTL", 7*24*time.Hour),
		FrontendURL:              env("FRONTEND_URL", "http://localhost:3000"),
		AdditionalAllowedOrigins: envList("ADDITIONAL_ALLOWED_ORIGINS"),
		AllowAllOrigins:          envBool("ALLOW_ALL_ORIGINS", false),
		ExpoPushURL:              env("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		ExpoAccessToken:          os.Getenv("EXPO_ACCESS_TOKEN"),
		PushTimeout:              envDuration("PUSH_TIMEOUT", 60*time.Second),
		PushRetries:              envInt("PUSH_RETRIES", 2),
		PGHost:                   os.Getenv("PG_HOST"),
		PGPort:                   env("PG_PORT", "5432"),
		PGUser:                   env("PG_USER", "postgres"),
		PGPassword:               os.Getenv("PG_PASSWORD"), // может быть пустым
		PGDatabase:               env("PG_DATABASE", "citydeals_admin"),
		PGSSLMode:                env("PG_SSL_MODE", "disable"),
	}

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("config: API_BASE_URL must be an absolute http(s) URL, got %q", cfg.APIBaseURL)
	}
	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.PushRetries < 0 {
		return nil, errors.New("config: PUSH_RETRIES must not be negative")
	}

	return cfg, nil
}

// Production сообщает, что сервис запущен в боевом окружении (Secure cookie).
func (c *Config) Production() bool {
	return c.Env == "production"
}

// JournalEnabled - журнал пишется только при заданном PG_HOST.
func (c *Config) JournalEnabled() bool {
	return c.PGHost != ""
}

// DSN строка подключения к PostgreSQL в формате key=value.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.PGHost, c.PGPort, c.PGUser, c.PGPassword, c.PGDatabase, c.PGSSLMode,
	)
}

// MigrateURL - та же база в URL-форме для golang-migrate (драйвер pgx5).
func (c *Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.PGUser, c.PGPassword),
		Host:     c.PGHost + ":" + c.PGPort,
		Path:     "/" + c.PGDatabase,
		RawQuery: url.Values{"sslmode": {c.PGSSLMode}}.Encode(),
	}
	return u.String()
}

// AllowedOrigins - FRONTEND_URL плюс ADDITIONAL_ALLOWED_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	out := make([]string, 0, 1+len(c.AdditionalAllowedOrigins))
	if c.FrontendURL != "" {
		out = append(out, c.FrontendURL)
	}
	return append(out, c.AdditionalAllowedOrigins...)
}

// ─────────────────────────────── helpers

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[config] неверное значение %s=%q, используем %d", k, v, def)
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("[config] неверное значение %s=%q, используем %t", k, v, def)
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		log.Printf("[config] неверное значение %s=%q, используем %s", k, v, def)
	}
	return def
}

func envList(k string) []string {
	raw := os.Getenv(k)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

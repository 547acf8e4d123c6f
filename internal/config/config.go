package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	App        AppConfig
	ShiftAPI   ShiftAPIConfig
	Reconcile  ReconcileConfig
	Scheduler  SchedulerConfig
	Score      ScoreConfig
	CORSOrigin []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	Timezone string
}

// ShiftAPIConfig points at the external time-clock service.
type ShiftAPIConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type ReconcileConfig struct {
	MaxDuration    time.Duration
	LockStaleAfter time.Duration
	RetryBackoff   time.Duration
}

type SchedulerConfig struct {
	ReconcileInterval time.Duration
	IdleCheckInterval time.Duration
	CatchupInterval   time.Duration
	CatchupDays       int
	ScoreInterval     time.Duration
}

type ScoreConfig struct {
	ActiveWeight     float64
	ThroughputWeight float64
}

func Load() (*Config, error) {
	// .env is optional; the environment wins either way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	} else if err != nil {
		slog.Debug("Config: no .env file, using environment only")
	}

	config := &Config{}
	var errs []error

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432, &errs),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "productivity"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: getEnvInt("DB_MAX_CONNS", 25, &errs),
		MinConns: getEnvInt("DB_MIN_CONNS", 5, &errs),
	}

	config.App = AppConfig{
		Port:     getEnvInt("APP_PORT", 8080, &errs),
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("APP_TIMEZONE", "America/Chicago"),
	}

	config.ShiftAPI = ShiftAPIConfig{
		URL:     getEnv("SHIFT_API_URL", ""),
		APIKey:  getEnv("SHIFT_API_KEY", ""),
		Timeout: getEnvDuration("SHIFT_API_TIMEOUT", 30*time.Second, &errs),
	}

	config.Reconcile = ReconcileConfig{
		MaxDuration:    getEnvDuration("RECONCILE_MAX_DURATION", 4*time.Minute, &errs),
		LockStaleAfter: getEnvDuration("LOCK_STALE_AFTER", 10*time.Minute, &errs),
		RetryBackoff:   getEnvDuration("FETCH_RETRY_BACKOFF", 2*time.Second, &errs),
	}

	config.Scheduler = SchedulerConfig{
		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 5*time.Minute, &errs),
		IdleCheckInterval: getEnvDuration("IDLE_CHECK_INTERVAL", time.Minute, &errs),
		CatchupInterval:   getEnvDuration("CATCHUP_INTERVAL", time.Hour, &errs),
		CatchupDays:       getEnvInt("CATCHUP_DAYS", 7, &errs),
		ScoreInterval:     getEnvDuration("SCORE_INTERVAL", time.Hour, &errs),
	}

	config.Score = ScoreConfig{
		ActiveWeight:     getEnvFloat("SCORE_ACTIVE_WEIGHT", 0.6, &errs),
		ThroughputWeight: getEnvFloat("SCORE_THROUGHPUT_WEIGHT", 0.4, &errs),
	}

	config.CORSOrigin = getEnvSlice("CORS_ALLOWED_ORIGINS")

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.ShiftAPI.URL == "" {
		return fmt.Errorf("SHIFT_API_URL is required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q is not a known IANA zone: %w", c.App.Timezone, err)
	}

	intervals := map[string]time.Duration{
		"RECONCILE_INTERVAL":     c.Scheduler.ReconcileInterval,
		"IDLE_CHECK_INTERVAL":    c.Scheduler.IdleCheckInterval,
		"CATCHUP_INTERVAL":       c.Scheduler.CatchupInterval,
		"SCORE_INTERVAL":         c.Scheduler.ScoreInterval,
		"RECONCILE_MAX_DURATION": c.Reconcile.MaxDuration,
		"LOCK_STALE_AFTER":       c.Reconcile.LockStaleAfter,
	}
	for name, d := range intervals {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Reconcile.MaxDuration >= c.Reconcile.LockStaleAfter {
		return fmt.Errorf("RECONCILE_MAX_DURATION must be shorter than LOCK_STALE_AFTER")
	}
	if c.Database.MaxConns < 1 || c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS, and DB_MAX_CONNS at least 1")
	}
	if c.Scheduler.CatchupDays < 1 {
		return fmt.Errorf("CATCHUP_DAYS must be at least 1")
	}
	if c.Score.ActiveWeight < 0 || c.Score.ThroughputWeight < 0 {
		return fmt.Errorf("score weights must not be negative")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64, errs *[]error) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return d
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

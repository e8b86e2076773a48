package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds everything the composition root needs to wire the app.
type Config struct {
	Backend  string
	Addr     string
	LogLevel string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBSSLMode  string

	BadgerPath     string
	BadgerInMemory bool

	JWTSecret  string
	CORSOrigin string
}

// LoadEnv reads a .env file into the process environment when one exists.
// It reports whether a file was loaded.
func LoadEnv(files ...string) bool {
	return godotenv.Load(files...) == nil
}

// Load builds a Config from environment variables, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Backend:    env("WRITER_BACKEND", BackendBadger),
		Addr:       env("WRITER_ADDR", ":8080"),
		LogLevel:   env("WRITER_LOG_LEVEL", "info"),
		DBUser:     env("DB_USER", ""),
		DBPassword: env("DB_PASSWORD", ""),
		DBHost:     env("DB_HOST", "localhost"),
		DBPort:     env("DB_PORT", "5432"),
		DBName:     env("DB_NAME", "writer"),
		DBSSLMode:  env("DB_SSLMODE", "require"),
		BadgerPath: env("BADGER_PATH", "./data"),
		JWTSecret:  env("JWT_SECRET", ""),
		CORSOrigin: env("CORS_ORIGIN", "*"),
	}

	if raw := env("BADGER_IN_MEMORY", ""); raw != "" {
		inMemory, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: BADGER_IN_MEMORY=%q", ErrInvalidConfig, raw)
		}
		cfg.BadgerInMemory = inMemory
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendPostgres:
		if c.DBHost == "" || c.DBName == "" {
			return fmt.Errorf("%w: postgres backend needs DB_HOST and DB_NAME", ErrInvalidConfig)
		}
	case BackendBadger:
		if c.BadgerPath == "" && !c.BadgerInMemory {
			return fmt.Errorf("%w: badger backend needs BADGER_PATH or BADGER_IN_MEMORY", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: WRITER_ADDR is empty", ErrInvalidConfig)
	}
	return nil
}

// PostgresDSN renders the lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

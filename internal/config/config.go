// Package config resolves flowcraft settings from an optional YAML file,
// FLOWCRAFT_* environment variables and command-line flags, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendNeo4j    = "neo4j"
)

const (
	defaultBackend      = BackendSQLite
	defaultSQLiteFile   = "flowcraft.db"
	defaultFlushTimeout = 5 * time.Second
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
)

// Config is the resolved runtime configuration.
type Config struct {
	Backend string `yaml:"backend"`
	// DSN is a file path for sqlite, a connection string for postgres, an
	// address for redis and a URI for mongo and neo4j.
	DSN string `yaml:"dsn"`
	// Database names the mongo or neo4j database.
	Database    string `yaml:"database"`
	RedisPrefix string `yaml:"redisPrefix"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`

	AutoSave     bool          `yaml:"autoSave"`
	FlushTimeout time.Duration `yaml:"flushTimeout"`

	// SkipValidation registers descriptions without kin-openapi checks.
	SkipValidation bool `yaml:"skipValidation"`

	LogLevel    string `yaml:"logLevel"`
	LogFormat   string `yaml:"logFormat"`
	MetricsAddr string `yaml:"metricsAddr"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Backend:      defaultBackend,
		DSN:          defaultSQLiteFile,
		AutoSave:     true,
		FlushTimeout: defaultFlushTimeout,
		LogLevel:     defaultLogLevel,
		LogFormat:    defaultLogFormat,
	}
}

// Load starts from Default, merges the YAML file at path (FLOWCRAFT_CONFIG
// when path is empty; no file is fine) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("FLOWCRAFT_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Backend = envOrDefault("FLOWCRAFT_BACKEND", c.Backend)
	c.DSN = envOrDefault("FLOWCRAFT_DSN", c.DSN)
	c.Database = envOrDefault("FLOWCRAFT_DATABASE", c.Database)
	c.RedisPrefix = envOrDefault("FLOWCRAFT_REDIS_PREFIX", c.RedisPrefix)
	c.Username = envOrDefault("FLOWCRAFT_USERNAME", c.Username)
	c.Password = envOrDefault("FLOWCRAFT_PASSWORD", c.Password)
	c.LogLevel = envOrDefault("FLOWCRAFT_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOrDefault("FLOWCRAFT_LOG_FORMAT", c.LogFormat)
	c.MetricsAddr = envOrDefault("FLOWCRAFT_METRICS_ADDR", c.MetricsAddr)

	if v := os.Getenv("FLOWCRAFT_AUTOSAVE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid FLOWCRAFT_AUTOSAVE: %w", err)
		}
		c.AutoSave = b
	}
	if v := os.Getenv("FLOWCRAFT_FLUSH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FLOWCRAFT_FLUSH_TIMEOUT: %w", err)
		}
		c.FlushTimeout = d
	}
	return nil
}

// Validate normalizes the backend name and checks that it can be opened.
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.DSN) == "" {
			c.DSN = defaultSQLiteFile
		}
		if c.DSN != ":memory:" && !filepath.IsAbs(c.DSN) {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get cwd: %w", err)
			}
			c.DSN = filepath.Join(cwd, c.DSN)
		}
	case BackendPostgres, BackendRedis, BackendMongo, BackendNeo4j:
		if strings.TrimSpace(c.DSN) == "" {
			return fmt.Errorf("backend %s requires a dsn", c.Backend)
		}
	default:
		return fmt.Errorf("unsupported backend: %s", c.Backend)
	}

	if c.FlushTimeout <= 0 {
		return errors.New("flush timeout must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.LogFormat)
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// NewLogger builds the process logger. Invalid settings fall back to info
// level text output.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

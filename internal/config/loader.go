package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "openroad.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "OPENROAD_PORT")
	setString(&cfg.Server.CORSOrigin, "OPENROAD_CORS_ORIGIN")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "OPENROAD_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "OPENROAD_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "OPENROAD_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "OPENROAD_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.ConnectTimeout, "OPENROAD_PG_CONNECT_TIMEOUT")

	setString(&cfg.GitHub.Token, "GITHUB_TOKEN")
	setString(&cfg.GitHub.APIBaseURL, "OPENROAD_GITHUB_API_URL")
	setInt(&cfg.GitHub.MaxTreeDepth, "OPENROAD_TREE_DEPTH")
	setInt(&cfg.GitHub.TreeFanout, "OPENROAD_TREE_FANOUT")
	setDuration(&cfg.GitHub.Timeout, "OPENROAD_GITHUB_TIMEOUT")

	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.BaseURL, "OPENROAD_GEMINI_URL")
	setFloat64(&cfg.Gemini.Temperature, "OPENROAD_GEMINI_TEMPERATURE")
	setInt(&cfg.Gemini.MaxOutputTokens, "OPENROAD_GEMINI_MAX_TOKENS")
	setDuration(&cfg.Gemini.Timeout, "OPENROAD_GEMINI_TIMEOUT")

	setString(&cfg.Snowflake.Account, "SNOWFLAKE_ACCOUNT")
	setString(&cfg.Snowflake.User, "SNOWFLAKE_USER")
	setString(&cfg.Snowflake.Password, "SNOWFLAKE_PASSWORD")
	setString(&cfg.Snowflake.Database, "OPENROAD_SNOWFLAKE_DATABASE")
	setString(&cfg.Snowflake.Schema, "OPENROAD_SNOWFLAKE_SCHEMA")
	setString(&cfg.Snowflake.Warehouse, "OPENROAD_SNOWFLAKE_WAREHOUSE")
	setDuration(&cfg.Snowflake.Timeout, "OPENROAD_SNOWFLAKE_TIMEOUT")

	setInt64(&cfg.Cache.L1MaxSizeMB, "OPENROAD_CACHE_L1_SIZE_MB")
	setDuration(&cfg.Cache.MaxAge, "OPENROAD_CACHE_MAX_AGE")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Subject, "OPENROAD_NATS_SUBJECT")

	setInt(&cfg.Breaker.MaxFailures, "OPENROAD_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Cooldown, "OPENROAD_BREAKER_COOLDOWN")

	setString(&cfg.Logging.Level, "OPENROAD_LOG_LEVEL")
	setString(&cfg.Logging.Service, "OPENROAD_LOG_SERVICE")

	setBool(&cfg.Telemetry.Enabled, "OPENROAD_OTEL_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.GitHub.APIBaseURL == "" {
		return errors.New("github.api_base_url is required")
	}
	if len(cfg.Gemini.Models) == 0 {
		return errors.New("gemini.models must list at least one model")
	}
	if cfg.GitHub.MaxTreeDepth < 1 {
		return errors.New("github.max_tree_depth must be >= 1")
	}
	if cfg.Cache.MaxAge <= 0 {
		return errors.New("cache.max_age must be positive")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

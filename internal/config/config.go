// Package config provides hierarchical configuration loading for OpenRoad.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the OpenRoad analysis service.
type Config struct {
	Server    Server    `yaml:"server"`
	Postgres  Postgres  `yaml:"postgres"`
	GitHub    GitHub    `yaml:"github"`
	Gemini    Gemini    `yaml:"gemini"`
	Snowflake Snowflake `yaml:"snowflake"`
	Cache     Cache     `yaml:"cache"`
	NATS      NATS      `yaml:"nats"`
	Breaker   Breaker   `yaml:"breaker"`
	Logging   Logging   `yaml:"logging"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Postgres holds durable-tier connection configuration. An empty DSN
// means the durable tier is not configured and storage runs on the
// in-memory fallback only.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
}

// GitHub holds source-control host API configuration.
type GitHub struct {
	Token        string        `yaml:"token"`
	APIBaseURL   string        `yaml:"api_base_url"`
	MaxTreeDepth int           `yaml:"max_tree_depth"`
	TreeFanout   int           `yaml:"tree_fanout"`
	Timeout      time.Duration `yaml:"timeout"`
}

// GeminiModel identifies one model variant in the fallback order.
type GeminiModel struct {
	Name       string `yaml:"name"`
	APIVersion string `yaml:"api_version"`
}

// Gemini holds analysis provider configuration. Models are tried in
// listed order.
type Gemini struct {
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	Models          []GeminiModel `yaml:"models"`
	Temperature     float64       `yaml:"temperature"`
	TopK            int           `yaml:"top_k"`
	TopP            float64       `yaml:"top_p"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
}

// Snowflake holds analytics query API configuration. Live metrics are
// enabled only when account, user, and password are all set.
type Snowflake struct {
	Account   string        `yaml:"account"`
	User      string        `yaml:"user"`
	Password  string        `yaml:"password"`
	Database  string        `yaml:"database"`
	Schema    string        `yaml:"schema"`
	Warehouse string        `yaml:"warehouse"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Cache holds roadmap cache configuration. MaxAge is the read-time
// staleness bound for cached roadmaps; L1MaxSizeMB sizes the in-process
// tier.
type Cache struct {
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"`
	MaxAge      time.Duration `yaml:"max_age"`
}

// NATS holds event publishing configuration. An empty URL disables
// publishing.
type NATS struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Breaker holds circuit breaker configuration for provider calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Telemetry holds OpenTelemetry export configuration.
type Telemetry struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Postgres: Postgres{
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			ConnectTimeout:  10 * time.Second,
		},
		GitHub: GitHub{
			APIBaseURL:   "https://api.github.com",
			MaxTreeDepth: 3,
			TreeFanout:   4,
			Timeout:      15 * time.Second,
		},
		Gemini: Gemini{
			BaseURL: "https://generativelanguage.googleapis.com",
			Models: []GeminiModel{
				{Name: "gemini-2.0-flash-exp", APIVersion: "v1beta"},
				{Name: "gemini-1.5-flash", APIVersion: "v1beta"},
				{Name: "gemini-1.5-flash-latest", APIVersion: "v1beta"},
			},
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 4096,
			Timeout:         30 * time.Second,
		},
		Snowflake: Snowflake{
			Database:  "GITHUB_ANALYTICS",
			Schema:    "PUBLIC",
			Warehouse: "COMPUTE_WH",
			Timeout:   30 * time.Second,
		},
		Cache: Cache{
			L1MaxSizeMB: 64,
			MaxAge:      time.Hour,
		},
		NATS: NATS{
			Subject: "openroad.roadmap.analyzed",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Cooldown:    30 * time.Second,
		},
		Logging: Logging{
			Level:   "info",
			Service: "openroad",
		},
		Telemetry: Telemetry{
			Endpoint: "localhost:4317",
		},
	}
}

// Package config loads and validates application configuration from YAML files
// with .env and environment-variable overrides. It provides typed structs for
// every subsystem (Server, Data, Analytics, Postgres, Redis, Kafka, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`

	// SlowRequestThreshold logs a request's span tree at warn level when
	// exceeded. Zero disables.
	SlowRequestThreshold time.Duration `yaml:"slowRequestThreshold"`
}

// Data source drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// DataConfig selects the backing store for the restaurant and order
// collections and how often cached copies are re-read.
type DataConfig struct {
	Driver          string        `yaml:"driver"`
	RestaurantsPath string        `yaml:"restaurantsPath"`
	OrdersPath      string        `yaml:"ordersPath"`
	RefreshInterval time.Duration `yaml:"refreshInterval"`
	Watch           bool          `yaml:"watch"`
}

// AnalyticsConfig tunes the query computations.
type AnalyticsConfig struct {
	// EndBoundary is "day" (orders anywhere on the end date count) or
	// "midnight" (orders after 00:00:00 of the end date are excluded).
	EndBoundary     string `yaml:"endBoundary"`
	DefaultPageSize int    `yaml:"defaultPageSize"`
	TopN            int    `yaml:"topN"`
	// MaxRangeDays caps the number of calendar days a date range may span.
	MaxRangeDays int `yaml:"maxRangeDays"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig holds Redis connection and response-caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled    bool        `yaml:"enabled"`
	Brokers    []string    `yaml:"brokers"`
	BufferSize int         `yaml:"bufferSize"`
	Topics     KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	QueryEvents string `yaml:"queryEvents"`
}

// RateLimitConfig controls the per-client request limiter.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), loads a .env file from the
// working directory when one exists, and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	_ = godotenv.Load()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	switch c.Data.Driver {
	case DriverFile, DriverPostgres:
	default:
		return fmt.Errorf("data.driver must be %q or %q, got %q", DriverFile, DriverPostgres, c.Data.Driver)
	}
	if c.Data.RefreshInterval <= 0 {
		return fmt.Errorf("data.refreshInterval must be positive, got %v", c.Data.RefreshInterval)
	}
	switch c.Analytics.EndBoundary {
	case "day", "midnight":
	default:
		return fmt.Errorf("analytics.endBoundary must be \"day\" or \"midnight\", got %q", c.Analytics.EndBoundary)
	}
	if c.Analytics.DefaultPageSize < 1 {
		return fmt.Errorf("analytics.defaultPageSize must be at least 1, got %d", c.Analytics.DefaultPageSize)
	}
	if c.Analytics.TopN < 1 {
		return fmt.Errorf("analytics.topN must be at least 1, got %d", c.Analytics.TopN)
	}
	if c.Analytics.MaxRangeDays < 1 {
		return fmt.Errorf("analytics.maxRangeDays must be at least 1, got %d", c.Analytics.MaxRangeDays)
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                 8000,
			ReadTimeout:          15 * time.Second,
			WriteTimeout:         15 * time.Second,
			ShutdownTimeout:      10 * time.Second,
			RequestTimeout:       10 * time.Second,
			SlowRequestThreshold: 500 * time.Millisecond,
		},
		Data: DataConfig{
			Driver:          DriverFile,
			RestaurantsPath: "storage/app/data/restaurants.json",
			OrdersPath:      "storage/app/data/orders.json",
			RefreshInterval: 300 * time.Second,
			Watch:           true,
		},
		Analytics: AnalyticsConfig{
			EndBoundary:     "day",
			DefaultPageSize: 10,
			TopN:            3,
			MaxRangeDays:    3660,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "restaurant_analytics",
			User:            "analytics",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			Enabled:    false,
			Brokers:    []string{"localhost:9092"},
			BufferSize: 10000,
			Topics: KafkaTopics{
				QueryEvents: "restaurant-analytics.queries",
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 600,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads RA_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RA_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RA_DATA_DRIVER"); v != "" {
		cfg.Data.Driver = v
	}
	if v := os.Getenv("RA_DATA_RESTAURANTS_PATH"); v != "" {
		cfg.Data.RestaurantsPath = v
	}
	if v := os.Getenv("RA_DATA_ORDERS_PATH"); v != "" {
		cfg.Data.OrdersPath = v
	}
	if v := os.Getenv("RA_DATA_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Data.RefreshInterval = d
		}
	}
	if v := os.Getenv("RA_DATA_WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Data.Watch = b
		}
	}
	if v := os.Getenv("RA_ANALYTICS_END_BOUNDARY"); v != "" {
		cfg.Analytics.EndBoundary = v
	}
	if v := os.Getenv("RA_ANALYTICS_MAX_RANGE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analytics.MaxRangeDays = n
		}
	}
	if v := os.Getenv("RA_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("RA_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("RA_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("RA_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("RA_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("RA_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("RA_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("RA_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("RA_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("RA_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("RA_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("RA_RATE_LIMIT_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("RA_CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("RA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RA_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RA_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}

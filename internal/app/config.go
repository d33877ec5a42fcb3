package app

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/hotelpulse/hotelpulse/internal/platform/cache"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"20s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// MetricsSource selects the payload source: "http" or "postgres".
	MetricsSource       string        `envconfig:"METRICS_SOURCE" default:"http"`
	MetricsBaseURL      string        `envconfig:"METRICS_BASE_URL" default:"http://127.0.0.1:9000"`
	MetricsServiceToken string        `envconfig:"METRICS_SERVICE_TOKEN"`
	MetricsTimeout      time.Duration `envconfig:"METRICS_TIMEOUT" default:"10s"`
	PGDSN               string        `envconfig:"PG_DSN"`
	PGMaxConns          int32         `envconfig:"PG_MAX_CONNS" default:"10"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	TenantsFile string `envconfig:"TENANTS_FILE" default:"tenants.json"`

	// GotenbergURL enables PDF exports when set.
	GotenbergURL     string        `envconfig:"GOTENBERG_URL"`
	GotenbergTimeout time.Duration `envconfig:"GOTENBERG_TIMEOUT" default:"30s"`

	MaxPoints         int           `envconfig:"MAX_POINTS" default:"7"`
	DashboardTimeout  time.Duration `envconfig:"DASHBOARD_TIMEOUT" default:"10s"`
	CORSOrigins       []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
	IdentityHeader    string        `envconfig:"IDENTITY_HEADER" default:"X-Authenticated-User"`
	WarmupCron        string        `envconfig:"WARMUP_CRON" default:"*/15 * * * *"`
	WorkerConcurrency int           `envconfig:"WORKER_CONCURRENCY" default:"5"`
	WorkerMetricsAddr string        `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch strings.ToLower(c.MetricsSource) {
	case "http":
		if strings.TrimSpace(c.MetricsBaseURL) == "" {
			return errors.New("metrics base url must be provided")
		}
	case "postgres":
		if strings.TrimSpace(c.PGDSN) == "" {
			return errors.New("pg dsn must be provided for the postgres metrics source")
		}
	default:
		return errors.New("metrics source must be http or postgres")
	}
	if c.MaxPoints <= 0 {
		return errors.New("max points must be positive")
	}
	if strings.TrimSpace(c.IdentityHeader) == "" {
		return errors.New("identity header must be provided")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// RedisOptions returns the connection settings shared by the payload cache and the job queue.
func (c *Config) RedisOptions() cache.Options {
	return cache.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// UsesPostgres reports whether payloads are read straight from the metrics database.
func (c *Config) UsesPostgres() bool {
	return c != nil && strings.EqualFold(c.MetricsSource, "postgres")
}

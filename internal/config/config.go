package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirb101/three-sided-sub001/internal/logger"
)

const (
	defaultServerPort        = 8090
	defaultServerTimeout     = 30
	defaultDatabasePort      = 5432
	defaultMaxOpenConns      = 25
	defaultMaxIdleConns      = 5
	defaultConnMaxLifetime   = 5
	defaultRedisAddress      = "localhost:6379"
	defaultEventStream       = "automation:events"
	defaultArchiveURL        = "http://localhost:9200"
	defaultArchiveIndex      = "problems"
	defaultRecencyDays       = 90
	defaultScoreMin          = 5
	defaultScoreMax          = 500
	defaultModel             = "claude-sonnet-4-5"
	defaultMaxTokens         = 1024
	defaultTransformTimeout  = 90 * time.Second
	defaultRequestsPerMinute = 10
	defaultTickInterval      = time.Minute
	defaultClaimStaleAfter   = 10 * time.Minute
)

// Config is the root configuration for the card automation service.
type Config struct {
	Debug       bool              `env:"APP_DEBUG" yaml:"debug"`
	Logging     logger.Config     `yaml:"logging"`
	Server      ServerConfig      `yaml:"server"`
	Auth        AuthConfig        `yaml:"auth"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Archive     ArchiveConfig     `yaml:"archive"`
	Transformer TransformerConfig `yaml:"transformer"`
	Automation  AutomationConfig  `yaml:"automation"`
	Profiling   ProfilingConfig   `yaml:"profiling"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" yaml:"host"`
	Port         int           `env:"SERVER_PORT" yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" yaml:"cors_origins"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Host            string        `env:"DB_HOST"     yaml:"host"`
	Port            int           `env:"DB_PORT"     yaml:"port"`
	User            string        `env:"DB_USER"     yaml:"user"`
	Password        string        `env:"DB_PASSWORD" yaml:"password"`
	DBName          string        `env:"DB_NAME"     yaml:"dbname"`
	SSLMode         string        `env:"DB_SSLMODE"  yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN builds the Postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis connection configuration for event publishing.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"        yaml:"address"`
	Password string `env:"REDIS_PASSWORD"       yaml:"password"`
	DB       int    `env:"REDIS_DB"             yaml:"db"`
	Enabled  bool   `env:"REDIS_EVENTS_ENABLED" yaml:"enabled"` // Feature flag for event publishing
	Stream   string `env:"REDIS_EVENT_STREAM"   yaml:"stream"`
}

// ArchiveConfig holds the problem archive (Elasticsearch) settings, including
// the candidate quality criteria applied to every fetch.
type ArchiveConfig struct {
	URL         string        `env:"ELASTICSEARCH_URL"     yaml:"url"`
	Index       string        `env:"ELASTICSEARCH_INDEX"   yaml:"index"`
	APIKey      string        `env:"ELASTICSEARCH_API_KEY" yaml:"api_key"`
	Username    string        `env:"ELASTICSEARCH_USER"    yaml:"username"`
	Password    string        `env:"ELASTICSEARCH_PASS"    yaml:"password"`
	RecencyDays int           `yaml:"recency_days"`
	ScoreMin    int           `yaml:"score_min"`
	ScoreMax    int           `yaml:"score_max"`
	Timeout     time.Duration `yaml:"timeout"`
}

// TransformerConfig holds the Anthropic API settings for card generation.
type TransformerConfig struct {
	APIKey            string        `env:"ANTHROPIC_API_KEY" yaml:"api_key"`
	Model             string        `env:"ANTHROPIC_MODEL"   yaml:"model"`
	MaxTokens         int           `yaml:"max_tokens"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

// AutomationConfig holds the scheduler daemon settings.
type AutomationConfig struct {
	TickInterval    time.Duration `yaml:"tick_interval"`
	ClaimStaleAfter time.Duration `yaml:"claim_stale_after"`
}

// ProfilingConfig holds the continuous profiling settings. Disabled by
// default; the service runs fine without a Pyroscope server.
type ProfilingConfig struct {
	Enabled     bool   `env:"PROFILING_ENABLED"     yaml:"enabled"`
	ServerURL   string `env:"PYROSCOPE_SERVER_URL"  yaml:"server_url"`
	Environment string `env:"PYROSCOPE_ENVIRONMENT" yaml:"environment"`
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port is required and must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.Archive.Index == "" {
		return errors.New("archive.index is required")
	}
	if c.Transformer.APIKey == "" {
		return errors.New("transformer.api_key is required")
	}
	if c.Automation.TickInterval <= 0 {
		return errors.New("automation.tick_interval must be positive")
	}
	if c.Archive.ScoreMin > c.Archive.ScoreMax {
		return errors.New("archive.score_min must not exceed archive.score_max")
	}
	return nil
}

// Load reads, defaults, overrides, and validates the service configuration.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerTimeout * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerTimeout * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{
			"http://localhost:3000", // Platform web frontend
			"http://localhost:3002", // Ops dashboard
		}
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultDatabasePort
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = defaultConnMaxLifetime * time.Minute
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	if cfg.Redis.Stream == "" {
		cfg.Redis.Stream = defaultEventStream
	}
	if cfg.Archive.URL == "" {
		cfg.Archive.URL = defaultArchiveURL
	}
	if cfg.Archive.Index == "" {
		cfg.Archive.Index = defaultArchiveIndex
	}
	if cfg.Archive.RecencyDays == 0 {
		cfg.Archive.RecencyDays = defaultRecencyDays
	}
	if cfg.Archive.ScoreMin == 0 {
		cfg.Archive.ScoreMin = defaultScoreMin
	}
	if cfg.Archive.ScoreMax == 0 {
		cfg.Archive.ScoreMax = defaultScoreMax
	}
	if cfg.Archive.Timeout == 0 {
		cfg.Archive.Timeout = defaultServerTimeout * time.Second
	}
	if cfg.Transformer.Model == "" {
		cfg.Transformer.Model = defaultModel
	}
	if cfg.Transformer.MaxTokens == 0 {
		cfg.Transformer.MaxTokens = defaultMaxTokens
	}
	if cfg.Transformer.Timeout == 0 {
		cfg.Transformer.Timeout = defaultTransformTimeout
	}
	if cfg.Transformer.RequestsPerMinute == 0 {
		cfg.Transformer.RequestsPerMinute = defaultRequestsPerMinute
	}
	if cfg.Automation.TickInterval == 0 {
		cfg.Automation.TickInterval = defaultTickInterval
	}
	if cfg.Automation.ClaimStaleAfter == 0 {
		cfg.Automation.ClaimStaleAfter = defaultClaimStaleAfter
	}
	if cfg.Profiling.ServerURL == "" {
		cfg.Profiling.ServerURL = "http://localhost:4040"
	}
	if cfg.Profiling.Environment == "" {
		cfg.Profiling.Environment = "development"
	}
}

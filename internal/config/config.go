// Package config holds the service configuration for the casenote
// classifier.
package config

import (
	"time"

	"github.com/clindocs/casenote-classifier/internal/configload"
)

// Default configuration values.
const (
	defaultServiceName     = "casenote-classifier"
	defaultServiceVersion  = "1.0.0"
	defaultServicePort     = 8070
	defaultConcurrency     = 8
	defaultBatchSize       = 200
	defaultRatePerSecond   = 100
	defaultRateBurst       = 200
	defaultDBDriver        = "sqlite3"
	defaultDBDSN           = "file:casenote.db?_journal_mode=WAL"
	defaultDBMaxConns      = 25
	defaultDBMaxIdleConns  = 5
	defaultHistoryLimit    = 50
	defaultHistoryMaxLimit = 500
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds all configuration for the casenote classifier service.
type Config struct {
	Service     ServiceConfig     `yaml:"service"`
	Database    DatabaseConfig    `yaml:"database"`
	Logging     LoggingConfig     `yaml:"logging"`
	Categorizer CategorizerConfig `yaml:"categorizer"`
	History     HistoryConfig     `yaml:"history"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Port            int           `env:"CLASSIFIER_PORT"        yaml:"port"`
	Debug           bool          `env:"APP_DEBUG"              yaml:"debug"`
	Concurrency     int           `env:"CLASSIFIER_CONCURRENCY" yaml:"concurrency"`
	BatchSize       int           `yaml:"batch_size"`
	RatePerSecond   float64       `yaml:"rate_per_second"`
	RateBurst       int           `yaml:"rate_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds match-history database configuration. The driver
// is "sqlite3" for single-node deployments or "postgres" for shared ones.
type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER" yaml:"driver"`
	DSN             string        `env:"DB_DSN"    yaml:"dsn"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
	Output string `yaml:"output"`
}

// CategorizerConfig holds matching behaviour settings.
type CategorizerConfig struct {
	// DictionaryDir overrides the embedded dictionaries when set.
	DictionaryDir string `env:"DICTIONARY_DIR" yaml:"dictionary_dir"`
	// FalsePositiveFiltering enables negation suppression by default;
	// individual requests can still turn it off.
	FalsePositiveFiltering bool `yaml:"false_positive_filtering"`
	// PerOccurrence inspects every occurrence of a keyword instead of
	// only the first when deciding suppression.
	PerOccurrence bool `yaml:"per_occurrence"`
	// LenientPatterns skips unparsable incident patterns instead of
	// refusing to start.
	LenientPatterns bool `yaml:"lenient_patterns"`
}

// HistoryConfig holds match-history retention settings.
type HistoryConfig struct {
	Enabled      bool `yaml:"enabled"`
	DefaultLimit int  `yaml:"default_limit"`
	MaxLimit     int  `yaml:"max_limit"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return configload.LoadWithDefaults[Config](path, SetDefaults)
}

// SetDefaults applies default values to the config.
func SetDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setLoggingDefaults(&cfg.Logging)
	setHistoryDefaults(&cfg.History)
}

// Default returns a config with all defaults applied, for tests and for
// running without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.Categorizer.FalsePositiveFiltering = true
	SetDefaults(cfg)
	return cfg
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.Concurrency == 0 {
		s.Concurrency = defaultConcurrency
	}
	if s.BatchSize == 0 {
		s.BatchSize = defaultBatchSize
	}
	if s.RatePerSecond == 0 {
		s.RatePerSecond = defaultRatePerSecond
	}
	if s.RateBurst == 0 {
		s.RateBurst = defaultRateBurst
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = defaultShutdownTimeout
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Driver == "" {
		d.Driver = defaultDBDriver
	}
	if d.DSN == "" {
		d.DSN = defaultDBDSN
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = time.Hour
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}

func setHistoryDefaults(h *HistoryConfig) {
	if h.DefaultLimit == 0 {
		h.DefaultLimit = defaultHistoryLimit
	}
	if h.MaxLimit == 0 {
		h.MaxLimit = defaultHistoryMaxLimit
	}
}

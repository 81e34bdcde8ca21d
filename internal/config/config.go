package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the coursedex configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Engine  EngineConfig  `yaml:"engine"`
	Cache   CacheConfig   `yaml:"cache"`
	Records RecordsConfig `yaml:"records"`
	Search  SearchConfig  `yaml:"search"`
	Index   IndexConfig   `yaml:"index"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EngineConfig holds search engine connection settings.
type EngineConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	APIKey           string   `yaml:"api_key"`
	Index            string   `yaml:"index"`
	Shards           int      `yaml:"shards"`
	Replicas         int      `yaml:"replicas"`
	TimeoutSec       int      `yaml:"timeout_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Cache drivers.
const (
	CacheDriverRedis  = "redis"
	CacheDriverValkey = "valkey"
	CacheDriverMemory = "memory"
	CacheDriverNone   = "none"
)

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Driver     string   `yaml:"driver"` // redis, valkey, memory, none (default: redis)
	Addrs      []string `yaml:"addrs"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	DB         int      `yaml:"db"`
	Prefix     string   `yaml:"prefix"`
	TTLSec     int      `yaml:"ttl_sec"`
	TimeoutMs  int      `yaml:"timeout_ms"`
	MaxEntries int      `yaml:"max_entries"` // memory driver only, 0 = unbounded
}

// Record store drivers.
const (
	RecordsDriverMongo    = "mongo"
	RecordsDriverPostgres = "postgres"
)

// RecordsConfig holds record store settings.
type RecordsConfig struct {
	Driver     string `yaml:"driver"` // mongo, postgres (default: mongo)
	URI        string `yaml:"uri"`
	DSN        string `yaml:"dsn"`
	Database   string `yaml:"database"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SearchConfig holds search behaviour settings.
type SearchConfig struct {
	FallbackEnabled *bool `yaml:"fallback_enabled"` // default: true
}

// Fallback reports whether the record store scan is enabled.
func (s SearchConfig) Fallback() bool {
	return s.FallbackEnabled == nil || *s.FallbackEnabled
}

// IndexConfig holds indexing settings.
type IndexConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Engine.Index == "" {
		c.Engine.Index = "courses"
	}
	if c.Engine.Shards <= 0 {
		c.Engine.Shards = 1
	}
	if c.Engine.TimeoutSec <= 0 {
		c.Engine.TimeoutSec = 5
	}
	if c.Engine.ReadinessTimeout <= 0 {
		c.Engine.ReadinessTimeout = 30
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheDriverRedis
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Cache.TimeoutMs <= 0 {
		c.Cache.TimeoutMs = 200
	}
	if c.Records.Driver == "" {
		c.Records.Driver = RecordsDriverMongo
	}
	if c.Records.Database == "" {
		c.Records.Database = "coursedex"
	}
	if c.Records.TimeoutSec <= 0 {
		c.Records.TimeoutSec = 10
	}
	if c.Index.BatchSize <= 0 {
		c.Index.BatchSize = 500
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Engine.Addrs) == 0 {
		return fmt.Errorf("engine.addrs is required")
	}
	if c.Engine.Replicas < 0 {
		return fmt.Errorf("engine.replicas must not be negative, got %d", c.Engine.Replicas)
	}

	switch c.Cache.Driver {
	case CacheDriverRedis, CacheDriverValkey:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	case CacheDriverMemory, CacheDriverNone:
		// ok
	default:
		return fmt.Errorf("cache.driver must be one of redis, valkey, memory, none, got %q", c.Cache.Driver)
	}
	if c.Cache.TTLSec < 1 {
		return fmt.Errorf("cache.ttl_sec must be at least 1, got %d", c.Cache.TTLSec)
	}

	switch c.Records.Driver {
	case RecordsDriverMongo:
		if c.Records.URI == "" {
			return fmt.Errorf("records.uri is required for driver %q", c.Records.Driver)
		}
	case RecordsDriverPostgres:
		if c.Records.DSN == "" {
			return fmt.Errorf("records.dsn is required for driver %q", c.Records.Driver)
		}
	default:
		return fmt.Errorf("records.driver must be \"mongo\" or \"postgres\", got %q", c.Records.Driver)
	}
	return nil
}

// EngineTimeout returns the per-request engine timeout.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutSec) * time.Second
}

// CacheTTL returns the result cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

// CacheTimeout returns the per-call cache timeout.
func (c *Config) CacheTimeout() time.Duration {
	return time.Duration(c.Cache.TimeoutMs) * time.Millisecond
}

// RecordsTimeout returns the per-call record store timeout.
func (c *Config) RecordsTimeout() time.Duration {
	return time.Duration(c.Records.TimeoutSec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

// Package config provides configuration management for the application.
//
// Values are layered: built-in defaults, then an optional config.yaml
// (with ${VAR} and ${VAR:-default} expansion), then environment variables.
// A .env file in the working directory is loaded into the environment first
// without overriding variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Engine modes
const (
	ModeMock = "mock"
	ModeLive = "live"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Backend BackendConfig `yaml:"backend"`
	PHI     PHIConfig     `yaml:"phi"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LogConfig     `yaml:"logging"`
	Storage StorageConfig `yaml:"storage"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	// MasterKey enables bearer authentication on /v1 routes when set
	MasterKey string `yaml:"master_key"`
	// BodySizeLimit caps request bodies, e.g. "1M" or "512K"
	BodySizeLimit string `yaml:"body_size_limit"`
	// SwaggerEnabled serves the API docs under /swagger/
	SwaggerEnabled bool `yaml:"swagger_enabled"`
}

// EngineConfig controls resolution defaults
type EngineConfig struct {
	// Mode is used when a request does not select one: "mock" or "live"
	Mode          string      `yaml:"mode"`
	MinIntervalMs int         `yaml:"min_interval_ms"`
	MockLatencyMs int         `yaml:"mock_latency_ms"`
	RateLimit     RedisConfig `yaml:"rate_limit_redis"`
}

// RedisConfig selects the cluster-wide rate limit gate. Empty URL keeps the
// limiter in process.
type RedisConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// BackendConfig describes the live completion backend
type BackendConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Deployment  string  `yaml:"deployment"`
	APIVersion  string  `yaml:"api_version"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// PHIConfig configures the sensitive field vocabulary
type PHIConfig struct {
	// VocabularyFile is a YAML file with field_names and replace_defaults
	VocabularyFile  string   `yaml:"vocabulary_file"`
	ExtraFieldNames []string `yaml:"extra_field_names"`
	// AllowedFields are payload paths forwarded to the backend unredacted
	AllowedFields []string `yaml:"allowed_fields"`
}

// MetricsConfig holds Prometheus export and rollup settings
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	// RollupSchedule is a cron spec; each run logs and resets the counters
	RollupSchedule string `yaml:"rollup_schedule"`
}

// LogConfig holds audit trail settings
type LogConfig struct {
	Enabled bool `yaml:"enabled"`
	// StorePayloads adds the redacted request payload to each entry
	StorePayloads bool `yaml:"store_payloads"`
	BufferSize    int  `yaml:"buffer_size"`
	// FlushInterval is in seconds
	FlushInterval int `yaml:"flush_interval"`
	RetentionDays int `yaml:"retention_days"`
}

// StorageConfig selects the audit trail database
type StorageConfig struct {
	Type       string                  `yaml:"type"`
	SQLite     SQLiteStorageConfig     `yaml:"sqlite"`
	PostgreSQL PostgreSQLStorageConfig `yaml:"postgresql"`
	MongoDB    MongoDBStorageConfig    `yaml:"mongodb"`
}

// SQLiteStorageConfig holds SQLite settings
type SQLiteStorageConfig struct {
	Path string `yaml:"path"`
}

// PostgreSQLStorageConfig holds PostgreSQL settings
type PostgreSQLStorageConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

// MongoDBStorageConfig holds MongoDB settings
type MongoDBStorageConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

// HTTPConfig holds outbound client timeouts in seconds
type HTTPConfig struct {
	Timeout               int `yaml:"timeout"`
	ResponseHeaderTimeout int `yaml:"response_header_timeout"`
}

// LoadResult is the outcome of Load.
type LoadResult struct {
	Config *Config
	// Path is the config file that was read, or "" when none was found
	Path string
}

// searchPaths are tried in order when no explicit file is given.
var searchPaths = []string{"config/config.yaml", "config.yaml"}

// Load reads configuration from the first config.yaml found and the environment.
func Load() (*LoadResult, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path, or from the default search paths
// when path is empty. An explicit path that does not exist is an error.
func LoadFile(path string) (*LoadResult, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := buildDefaultConfig()

	used, raw, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		if err := decodeYAML(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", used, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &LoadResult{Config: cfg, Path: used}, nil
}

func readConfigFile(path string) (string, []byte, error) {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return path, raw, nil
	}
	for _, p := range searchPaths {
		raw, err := os.ReadFile(p)
		if err == nil {
			return p, raw, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
	}
	return "", nil, nil
}

// decodeYAML expands environment placeholders in every scalar before
// decoding into cfg, so fields absent from the file keep their defaults.
func decodeYAML(raw []byte, cfg *Config) error {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return err
	}
	if root.Kind == 0 {
		return nil
	}
	expandNode(&root)
	return root.Decode(cfg)
}

func expandNode(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		n.Value = expandString(n.Value)
		return
	}
	for _, c := range n.Content {
		expandNode(c)
	}
}

// buildDefaultConfig returns the configuration used when nothing is set.
func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			BodySizeLimit: "1M",
		},
		Engine: EngineConfig{
			Mode:          ModeMock,
			MinIntervalMs: 1000,
			RateLimit:     RedisConfig{Key: "claimresolver:ratelimit:live"},
		},
		Backend: BackendConfig{
			Provider:    "openai",
			APIVersion:  "2024-06-01",
			MaxTokens:   500,
			Temperature: 0.3,
		},
		Metrics: MetricsConfig{
			Endpoint: "/metrics",
		},
		Logging: LogConfig{
			BufferSize:    1000,
			FlushInterval: 5,
			RetentionDays: 30,
		},
		Storage: StorageConfig{
			Type:       "sqlite",
			SQLite:     SQLiteStorageConfig{Path: "data/claimresolver.db"},
			PostgreSQL: PostgreSQLStorageConfig{MaxConns: 10},
			MongoDB:    MongoDBStorageConfig{Database: "claimresolver"},
		},
		HTTP: HTTPConfig{
			Timeout:               60,
			ResponseHeaderTimeout: 60,
		},
	}
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	var errs []error
	switch c.Engine.Mode {
	case ModeMock, ModeLive:
	default:
		errs = append(errs, fmt.Errorf("engine.mode must be %q or %q, got %q", ModeMock, ModeLive, c.Engine.Mode))
	}
	if c.Engine.MinIntervalMs < 0 {
		errs = append(errs, errors.New("engine.min_interval_ms must not be negative"))
	}
	if err := ValidateBodySizeLimit(c.Server.BodySizeLimit); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Storage.Type) {
	case "sqlite", "postgresql", "mongodb":
	default:
		errs = append(errs, fmt.Errorf("unknown storage type: %s (valid: sqlite, postgresql, mongodb)", c.Storage.Type))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Endpoint, "/") {
		errs = append(errs, fmt.Errorf("metrics.endpoint must start with '/', got %q", c.Metrics.Endpoint))
	}
	return errors.Join(errs...)
}

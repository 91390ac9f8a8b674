package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "tsgen/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. TSGEN_SERVER_PORT.
const EnvPrefix = "TSGEN"

// ConfigFileEnv names the variable pointing at an explicit config file.
const ConfigFileEnv = "TSGEN_CONFIG"

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Reference  ReferenceConfig  `yaml:"reference" envconfig:"REFERENCE"`
	Generation GenerationConfig `yaml:"generation" envconfig:"GENERATION"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`

	// file is the config file the values were read from, if any.
	file string
}

// ServerConfig contains HTTP server configuration. AllowedOrigins enables
// CORS for the listed origins, "*" allowing any. APIKeys maps accepted
// X-API-Key values to client names; empty leaves the API open.
type ServerConfig struct {
	Port            int               `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration     `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration     `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration     `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int               `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	MaxBodyBytes    int64             `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`
	ShutdownTimeout time.Duration     `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration     `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	RateLimit       RateLimitConfig   `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	AllowedOrigins  []string          `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	APIKeys         map[string]string `yaml:"api_keys" envconfig:"API_KEYS"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths. Relative paths resolve against
// the directory of the config file, or the working directory without one.
type PathsConfig struct {
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR"`
	OutputDir   string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	ScenarioDir string `yaml:"scenario_dir" envconfig:"SCENARIO_DIR"`
}

// ReferenceConfig locates the reference datasets used by external factors.
type ReferenceConfig struct {
	GDPFile           string `yaml:"gdp_file" envconfig:"GDP_FILE"`
	GDPSheet          string `yaml:"gdp_sheet" envconfig:"GDP_SHEET"`
	IndustryIndexFile string `yaml:"industry_index_file" envconfig:"INDUSTRY_INDEX_FILE"`
	IndustrySheet     string `yaml:"industry_sheet" envconfig:"INDUSTRY_SHEET"`
}

// GenerationConfig bounds what a single request may generate.
type GenerationConfig struct {
	DefaultSeed int64 `yaml:"default_seed" envconfig:"DEFAULT_SEED"`
	MaxRows     int   `yaml:"max_rows" envconfig:"MAX_ROWS"`
	MaxBatch    int   `yaml:"max_batch" envconfig:"MAX_BATCH"`
	Precision   int   `yaml:"precision" envconfig:"PRECISION"`
	Workers     int   `yaml:"workers" envconfig:"WORKERS"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// Load builds the configuration from defaults, then the config file if one
// is found, then environment variables.
func Load() (*Config, error) {
	return LoadFile(configFilePath())
}

// LoadFile is Load with an explicit config file. An empty path skips the
// file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// mergeFile overlays the keys present in a YAML file onto c.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewStorageError("failed to read config file", err).WithContext("path", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return apperrors.NewParsingError("failed to parse config file", err).WithContext("path", path)
	}
	c.file = path
	return nil
}

// File returns the config file that was loaded, or "".
func (c *Config) File() string { return c.file }

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperrors.Configf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return apperrors.Configf("server read and write timeouts must be positive")
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst <= 0) {
		return apperrors.Configf("rate limit needs positive rps and burst")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return apperrors.Configf("invalid log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return apperrors.Configf("invalid log format %q", c.Logging.Format)
	}
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return apperrors.Configf("invalid log output %q", c.Logging.Output)
	}

	if c.Generation.MaxRows <= 0 {
		return apperrors.Configf("generation max rows must be positive")
	}
	if c.Generation.MaxBatch <= 0 || c.Generation.Workers <= 0 {
		return apperrors.Configf("generation batch size and workers must be positive")
	}
	if c.Generation.Precision < -1 {
		return apperrors.Configf("precision must be -1 or more, got %d", c.Generation.Precision)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return apperrors.Configf("telemetry sample ratio must be within [0, 1]")
	}
	return nil
}

// configFilePath returns the path to the config file
func configFilePath() string {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		return path
	}

	locations := []string{
		"tsgen.yaml",
		"configs/tsgen.yaml",
		filepath.Join("..", "configs", "tsgen.yaml"),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  45 * time.Second,
			MaxBodyBytes:    10 << 20,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/tsgen.log",
		},
		Paths: PathsConfig{
			DataDir:     "data",
			OutputDir:   "output",
			LogsDir:     "logs",
			ScenarioDir: "scenarios",
		},
		Reference: ReferenceConfig{
			GDPFile:           "data/gdp_per_capita.csv",
			IndustryIndexFile: "data/eu_prod_index.csv",
		},
		Generation: GenerationConfig{
			MaxRows:   1_000_000,
			MaxBatch:  16,
			Precision: 6,
			Workers:   4,
		},
		Telemetry: TelemetryConfig{
			EnableTracing:  false,
			EnableMetrics:  true,
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
			Environment:    "development",
		},
	}
}

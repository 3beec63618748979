package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Tracing   TracingConfig   `yaml:"tracing" envconfig:"TRACING"`
	Cleaning  CleaningConfig  `yaml:"cleaning" envconfig:"CLEANING"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	// MaxUploadBytes bounds multipart dataset uploads.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"67108864"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system paths. Relative entries are resolved
// against the working directory by Load.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"output"`
	WebDir    string `yaml:"web_dir" envconfig:"WEB_DIR" default:"web"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// WebSocketConfig contains WebSocket configuration.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
	WriteWait       time.Duration `yaml:"write_wait" envconfig:"WRITE_WAIT" default:"10s"`
}

// TracingConfig controls the OpenTelemetry stdout exporter.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED" default:"false"`
}

// CleaningConfig contains outlier detection parameters.
type CleaningConfig struct {
	ZScoreThreshold float64 `yaml:"zscore_threshold" envconfig:"ZSCORE_THRESHOLD" default:"3.0"`
}

// envPrefix namespaces all environment variables, e.g. SOLAR_SERVER_PORT.
const envPrefix = "SOLAR"

// Load builds the configuration from struct tag defaults, environment
// variables, and an optional YAML file named by SOLAR_CONFIG_FILE or
// config.yaml in the working directory. Values set in the file override
// the environment result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", configFile, err)
		}
		cfg = merge(*fileCfg, cfg)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func configFilePath() string {
	if path := os.Getenv(envPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge overlays file values on the envconfig result. A field keeps the
// env/default value unless the file set it.
func merge(fileCfg, envCfg Config) Config {
	out := envCfg
	if fileCfg.Server.Port != 0 {
		out.Server.Port = fileCfg.Server.Port
	}
	if fileCfg.Logging.Level != "" {
		out.Logging.Level = fileCfg.Logging.Level
	}
	if fileCfg.Logging.Format != "" {
		out.Logging.Format = fileCfg.Logging.Format
	}
	if fileCfg.Logging.Output != "" {
		out.Logging.Output = fileCfg.Logging.Output
	}
	if fileCfg.Logging.FilePath != "" {
		out.Logging.FilePath = fileCfg.Logging.FilePath
	}
	if fileCfg.Paths.DataDir != "" {
		out.Paths.DataDir = fileCfg.Paths.DataDir
	}
	if fileCfg.Paths.OutputDir != "" {
		out.Paths.OutputDir = fileCfg.Paths.OutputDir
	}
	if fileCfg.Paths.WebDir != "" {
		out.Paths.WebDir = fileCfg.Paths.WebDir
	}
	if fileCfg.Paths.LogsDir != "" {
		out.Paths.LogsDir = fileCfg.Paths.LogsDir
	}
	if len(fileCfg.Security.AllowedOrigins) > 0 {
		out.Security.AllowedOrigins = fileCfg.Security.AllowedOrigins
	}
	if fileCfg.Cleaning.ZScoreThreshold != 0 {
		out.Cleaning.ZScoreThreshold = fileCfg.Cleaning.ZScoreThreshold
	}
	if fileCfg.Tracing.Enabled {
		out.Tracing.Enabled = true
	}
	return out
}

func (c *Config) resolvePaths() error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	for _, p := range []*string{&c.Paths.DataDir, &c.Paths.OutputDir, &c.Paths.WebDir, &c.Paths.LogsDir} {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(wd, *p)
		}
	}
	if !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(c.Paths.LogsDir, filepath.Base(c.Logging.FilePath))
	}
	return nil
}

// EnsureDirectories creates the data, output and logs directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.OutputDir, c.Paths.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}
	if c.Cleaning.ZScoreThreshold <= 0 {
		return fmt.Errorf("z-score threshold must be positive, got %g", c.Cleaning.ZScoreThreshold)
	}
	switch c.Logging.Output {
	case "stdout", "file", "both":
	case "":
		c.Logging.Output = "stdout"
	default:
		return fmt.Errorf("invalid logging output: %s", c.Logging.Output)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/e3wm/e3wm-api/internal/source"
)

const (
	defaultPort           = "7373"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"
	defaultLogEncoding    = "console"
	defaultWatchDebounce  = 500 * time.Millisecond
)

var (
	validLogLevels    = []string{"debug", "info", "warn", "error"}
	validLogEncodings = []string{"console", "json"}
)

// Config aggregates runtime configuration of the e3wm-api tool itself,
// resolved from multiple sources.
// Precedence: CLI flags > YAML settings file > Environment variables > Defaults
type Config struct {
	ConfigHome           string        `yaml:"config_home"`
	SystemDir            string        `yaml:"system_dir"`
	LogLevel             string        `yaml:"log_level"`
	LogEncoding          string        `yaml:"log_encoding"`
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    time.Duration `yaml:"read_header_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	EnableRequestLogging bool          `yaml:"enable_request_logging"`
	RateLimitRPS         float64       `yaml:"-"`
	RateLimitBurst       int           `yaml:"-"`
	Watch                bool          `yaml:"watch"`
	WatchDebounce        time.Duration `yaml:"watch_debounce"`
}

// yamlConfig represents the YAML settings file structure.
type yamlConfig struct {
	ConfigHome           string        `yaml:"config_home"`
	SystemDir            string        `yaml:"system_dir"`
	LogLevel             string        `yaml:"log_level"`
	LogEncoding          string        `yaml:"log_encoding"`
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	Watch                *bool         `yaml:"watch"`
	WatchDebounce        string        `yaml:"watch_debounce"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	SettingsFile   string
	ConfigHome     *string
	SystemDir      *string
	LogLevel       *string
	LogEncoding    *string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	Watch          *bool
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML settings file > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables
	applyEnvConfig(&cfg)

	// Load from YAML file if specified (overrides env)
	if overrides != nil && overrides.SettingsFile != "" {
		yamlCfg, err := loadFromFile(overrides.SettingsFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML settings: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, err
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Source builds the configuration source described by the settings.
func (c Config) Source() (source.Source, error) {
	return source.Default(c.ConfigHome, c.SystemDir)
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		SystemDir:            source.DefaultSystemDir,
		LogLevel:             defaultLogLevel,
		LogEncoding:          defaultLogEncoding,
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		WatchDebounce:        defaultWatchDebounce,
	}
}

// loadFromFile loads settings from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML settings to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.ConfigHome != "" {
		cfg.ConfigHome = yamlCfg.ConfigHome
	}
	if yamlCfg.SystemDir != "" {
		cfg.SystemDir = yamlCfg.SystemDir
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogEncoding != "" {
		cfg.LogEncoding = yamlCfg.LogEncoding
	}
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
		{"watch_debounce", yamlCfg.WatchDebounce, &cfg.WatchDebounce},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.field = value
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.Watch != nil {
		cfg.Watch = *yamlCfg.Watch
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if home := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); home != "" {
		cfg.ConfigHome = home
	}

	if dir := strings.TrimSpace(os.Getenv("E3WM_SYSTEM_DIR")); dir != "" {
		cfg.SystemDir = dir
	}

	if level := strings.TrimSpace(os.Getenv("E3WM_LOG_LEVEL")); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	if encoding := strings.TrimSpace(os.Getenv("E3WM_LOG_ENCODING")); encoding != "" {
		cfg.LogEncoding = strings.ToLower(encoding)
	}

	if port := strings.TrimSpace(os.Getenv("E3WM_API_PORT")); port != "" {
		cfg.Port = port
	}

	if rps := strings.TrimSpace(os.Getenv("E3WM_API_RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("E3WM_API_RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if watch := strings.TrimSpace(os.Getenv("E3WM_WATCH")); watch != "" {
		if value, err := strconv.ParseBool(watch); err == nil {
			cfg.Watch = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.ConfigHome != nil && *overrides.ConfigHome != "" {
		cfg.ConfigHome = *overrides.ConfigHome
	}

	if overrides.SystemDir != nil && *overrides.SystemDir != "" {
		cfg.SystemDir = *overrides.SystemDir
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(*overrides.LogLevel)
	}

	if overrides.LogEncoding != nil && *overrides.LogEncoding != "" {
		cfg.LogEncoding = strings.ToLower(*overrides.LogEncoding)
	}

	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.Watch != nil {
		cfg.Watch = *overrides.Watch
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit rps must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit burst must be >= 0")
	}
	if strings.TrimSpace(cfg.SystemDir) == "" {
		return fmt.Errorf("system config directory cannot be empty")
	}
	if !slices.Contains(validLogLevels, cfg.LogLevel) {
		return fmt.Errorf("log level must be one of %s, got %q", strings.Join(validLogLevels, ", "), cfg.LogLevel)
	}
	if !slices.Contains(validLogEncodings, cfg.LogEncoding) {
		return fmt.Errorf("log encoding must be one of %s, got %q", strings.Join(validLogEncodings, ", "), cfg.LogEncoding)
	}
	if cfg.WatchDebounce <= 0 {
		return fmt.Errorf("watch debounce must be positive")
	}
	return nil
}

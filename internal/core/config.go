package core

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config represents the main configuration for co2-bunny
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Providers ProvidersConfig `yaml:"providers" json:"providers"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Features  FeatureConfig   `yaml:"features" json:"features"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port int    `yaml:"port" json:"port"`
	Host string `yaml:"host" json:"host"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// ProvidersConfig contains the upstream carbon-data API settings
type ProvidersConfig struct {
	WebsiteCarbonURL string `yaml:"website_carbon_url" json:"website_carbon_url"`
	GreenWebURL      string `yaml:"green_web_url" json:"green_web_url"`
	TimeoutSeconds   int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	UserAgent        string `yaml:"user_agent" json:"user_agent"`
}

// CacheConfig controls how long a stored analysis is reused
type CacheConfig struct {
	TTLHours int `yaml:"ttl_hours" json:"ttl_hours"`
}

// LoggingConfig contains logger configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// FeatureConfig contains feature toggles
type FeatureConfig struct {
	Impact  ImpactConfig  `yaml:"impact" json:"impact"`
	Web     WebConfig     `yaml:"web" json:"web"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// ImpactConfig toggles the impact API
type ImpactConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// WebConfig toggles the server-rendered analyze page
type WebConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 3000,
			Host: "0.0.0.0",
		},
		Database: DatabaseConfig{
			Path: filepath.Join(xdg.DataHome, "co2-bunny", "co2bunny.db"),
		},
		Providers: ProvidersConfig{
			WebsiteCarbonURL: "https://api.websitecarbon.com",
			GreenWebURL:      "https://api.thegreenwebfoundation.org",
			TimeoutSeconds:   10,
			UserAgent:        "co2-bunny/1.0",
		},
		Cache: CacheConfig{
			TTLHours: 24,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Features: FeatureConfig{
			Impact:  ImpactConfig{Enabled: true},
			Web:     WebConfig{Enabled: true},
			Metrics: MetricsConfig{Enabled: true},
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file
// named by CO2_CONFIG_FILE, and CO2_* environment variables, in that order.
func LoadConfig() (*Config, error) {
	config := DefaultConfig()

	if path := os.Getenv("CO2_CONFIG_FILE"); path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("CO2_PORT", c.Server.Port)
	c.Server.Host = getEnvOrDefault("CO2_HOST", c.Server.Host)
	c.Database.Path = getEnvOrDefault("CO2_DB_PATH", c.Database.Path)

	c.Providers.WebsiteCarbonURL = getEnvOrDefault("CO2_WEBSITE_CARBON_URL", c.Providers.WebsiteCarbonURL)
	c.Providers.GreenWebURL = getEnvOrDefault("CO2_GREEN_WEB_URL", c.Providers.GreenWebURL)
	c.Providers.TimeoutSeconds = getEnvAsInt("CO2_PROVIDER_TIMEOUT", c.Providers.TimeoutSeconds)
	c.Providers.UserAgent = getEnvOrDefault("CO2_USER_AGENT", c.Providers.UserAgent)

	c.Cache.TTLHours = getEnvAsInt("CO2_CACHE_TTL", c.Cache.TTLHours)
	c.Logging.Level = getEnvOrDefault("CO2_LOG_LEVEL", c.Logging.Level)

	c.Features.Impact.Enabled = getEnvAsBool("CO2_ENABLE_IMPACT", c.Features.Impact.Enabled)
	c.Features.Web.Enabled = getEnvAsBool("CO2_ENABLE_WEB", c.Features.Web.Enabled)
	c.Features.Metrics.Enabled = getEnvAsBool("CO2_ENABLE_METRICS", c.Features.Metrics.Enabled)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Providers.WebsiteCarbonURL == "" || c.Providers.GreenWebURL == "" {
		return fmt.Errorf("provider URLs are required")
	}

	if c.Providers.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid provider timeout: %d", c.Providers.TimeoutSeconds)
	}

	if c.Cache.TTLHours <= 0 {
		return fmt.Errorf("invalid cache ttl: %d", c.Cache.TTLHours)
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}

	// The web page renders through the impact services
	if c.Features.Web.Enabled && !c.Features.Impact.Enabled {
		return fmt.Errorf("web feature requires the impact feature")
	}

	return nil
}

// ProviderTimeout returns the per-call upstream timeout
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Providers.TimeoutSeconds) * time.Second
}

// CacheTTL returns the freshness window for stored analyses
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// LogLevel returns the configured slog level
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Logging.Level)
	return level
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsFeatureEnabled checks if a feature is enabled
func (c *Config) IsFeatureEnabled(featureName string) bool {
	switch strings.ToLower(featureName) {
	case "impact":
		return c.Features.Impact.Enabled
	case "web":
		return c.Features.Web.Enabled
	case "metrics":
		return c.Features.Metrics.Enabled
	default:
		return false
	}
}

func parseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", value)
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

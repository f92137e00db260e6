package configs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// FileConfig defines the structure loaded from the YAML configuration file.
type FileConfig struct {
	// DeclarationSources are YAML documents declaring methods and/or tools.
	DeclarationSources []string `yaml:"declaration_sources"`
	// OpenAPISources are OpenAPI documents whose operations become method
	// definitions.
	OpenAPISources []string `yaml:"openapi_sources"`
	// RemoteServiceURL is the base URL of the HTTP fallback invoker for
	// methods with no local service implementation.
	RemoteServiceURL string `yaml:"remote_service_url"`
}

// Config holds the final application configuration, merged from file and
// environment variables. Environment variables use the prefix "CASEBRIDGE_"
// and override file settings.
type Config struct {
	// Config file path (loaded first from env).
	ConfigFilePath string `envconfig:"CONFIG_FILE" default:"configs/casebridge.yaml"`

	// File-loaded fields (merged).
	DeclarationSources []string
	OpenAPISources     []string
	RemoteServiceURL   string

	// Environment-overridable fields.
	ListenAddr               string        `envconfig:"LISTEN_ADDR" default:":8080"`
	AdminAddr                string        `envconfig:"ADMIN_ADDR" default:":8081"`
	DefaultUserID            string        `envconfig:"DEFAULT_USER_ID" default:"local"`
	SkipUnboundTools         bool          `envconfig:"SKIP_UNBOUND_TOOLS" default:"true"`
	HTTPClientTimeout        time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"30s"`
	ShutdownTimeout          time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	OtelExporterOtlpEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	LogLevel                 string        `envconfig:"LOG_LEVEL" default:"info"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration first from environment variables (to get the file
// path), then from the YAML file, and finally merges/overrides with
// environment variables again.
func Load() (*Config, error) {
	var initialCfg Config
	if err := envconfig.Process("casebridge", &initialCfg); err != nil {
		return nil, fmt.Errorf("failed to process initial environment variables: %w", err)
	}

	fileCfg := FileConfig{}
	if initialCfg.ConfigFilePath != "" {
		yamlFile, err := os.ReadFile(initialCfg.ConfigFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
		if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
		slog.Info("Loaded configuration from file.", "path", initialCfg.ConfigFilePath)
	} else {
		slog.Info("No config file path specified (CASEBRIDGE_CONFIG_FILE), using defaults/env vars only.")
	}

	finalCfg := initialCfg
	finalCfg.DeclarationSources = fileCfg.DeclarationSources
	finalCfg.OpenAPISources = fileCfg.OpenAPISources
	finalCfg.RemoteServiceURL = fileCfg.RemoteServiceURL

	// Process environment variables again to allow overrides over file settings.
	if err := envconfig.Process("casebridge", &finalCfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}

	return &finalCfg, nil
}

// Package config provides configuration types and loading for FieldGate.
//
// Configuration is file-based (fieldgate.yaml) with environment variable
// overrides under the FIELDGATE_ prefix. The validation rule table is
// loaded once at startup and handed to the pattern registry; there is no
// hot-reload.
package config

import (
	"github.com/fieldgate/fieldgate/internal/domain/validation"
	"github.com/spf13/viper"
)

// Config is the top-level configuration for the fieldgate process.
type Config struct {
	// Server configures the HTTP validation endpoint.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Validation configures per-kind length bounds, URI schemes, and
	// optional CEL guard expressions.
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`

	// Audit configures the SQLite rejection audit trail.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// Auth configures optional API-key protection for the HTTP endpoint.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// Tracing enables OpenTelemetry stdout tracing for validation
	// requests.
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8089" or "127.0.0.1:8089".
	Addr string `yaml:"addr" mapstructure:"addr" validate:"required"`

	// LogLevel sets the slog level: debug, info, warn, error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// AllowedOrigins is the Origin header allow-list for browser
	// clients. Empty blocks all cross-origin browser requests.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// FieldLimits bounds one field kind's value length. Zero values fall
// back to the registry defaults.
type FieldLimits struct {
	MinLength int `yaml:"min_length" mapstructure:"min_length" validate:"gte=0"`
	MaxLength int `yaml:"max_length" mapstructure:"max_length" validate:"gte=0"`
}

// URILimits configures the URI kind.
type URILimits struct {
	MinLength int      `yaml:"min_length" mapstructure:"min_length" validate:"gte=0"`
	MaxLength int      `yaml:"max_length" mapstructure:"max_length" validate:"gte=0"`
	Schemes   []string `yaml:"schemes" mapstructure:"schemes" validate:"omitempty,dive,uri_scheme"`
}

// GuardConfig is an optional CEL guard expression applied to accepted
// values of one field kind. The expression sees `value`, `field`, and
// `kind` string variables and must return a boolean.
type GuardConfig struct {
	Kind       string `yaml:"kind" mapstructure:"kind" validate:"required,field_kind"`
	Expression string `yaml:"expression" mapstructure:"expression" validate:"required"`
}

// ValidationConfig is the configuration surface for the pattern
// registry and the CEL guards.
type ValidationConfig struct {
	Name       FieldLimits   `yaml:"name" mapstructure:"name"`
	Identifier FieldLimits   `yaml:"identifier" mapstructure:"identifier"`
	ToolName   FieldLimits   `yaml:"tool_name" mapstructure:"tool_name"`
	URI        URILimits     `yaml:"uri" mapstructure:"uri"`
	Guards     []GuardConfig `yaml:"guards" mapstructure:"guards" validate:"omitempty,dive"`
}

// AuditConfig configures the rejection audit store.
type AuditConfig struct {
	// Enabled turns the SQLite audit trail on.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// RetentionDays is how long rejection events are kept (default 30).
	RetentionDays int `yaml:"retention_days" mapstructure:"retention_days" validate:"gte=0"`
}

// AuthConfig configures API-key protection of the HTTP endpoint.
// Hashes are either "sha256:<hex>" (from `fieldgate hash-key`) or
// Argon2id PHC strings. Empty means no auth (local use).
type AuthConfig struct {
	APIKeyHashes []string `yaml:"api_key_hashes" mapstructure:"api_key_hashes"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// DefaultConfig returns the built-in defaults used when no config file
// is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:     ":8089",
			LogLevel: "info",
		},
		Audit: AuditConfig{
			Path:          "./fieldgate-audit.db",
			RetentionDays: 30,
		},
	}
}

// LoadConfig reads the configuration from Viper (file plus environment
// overrides) on top of the defaults. Call InitViper first.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RegistryConfig maps the loaded configuration onto the pattern
// registry's static table.
func (c *Config) RegistryConfig() validation.RegistryConfig {
	return validation.RegistryConfig{
		Name:       validation.Limits{MinLength: c.Validation.Name.MinLength, MaxLength: c.Validation.Name.MaxLength},
		Identifier: validation.Limits{MinLength: c.Validation.Identifier.MinLength, MaxLength: c.Validation.Identifier.MaxLength},
		ToolName:   validation.Limits{MinLength: c.Validation.ToolName.MinLength, MaxLength: c.Validation.ToolName.MaxLength},
		URI: validation.URIConfig{
			MinLength: c.Validation.URI.MinLength,
			MaxLength: c.Validation.URI.MaxLength,
			Schemes:   c.Validation.URI.Schemes,
		},
	}
}

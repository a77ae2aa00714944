// Package system provides infrastructure for system-level configuration.
// This includes loading the system config file (composer.yaml) and the
// capability grants attached to containment partitions.
package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/reglet-dev/composer/internal/domain/capabilities"
)

// Config represents the system configuration file (composer.yaml).
// This is infrastructure-level configuration separate from containment profiles.
type Config struct {
	HomeDir             string           `yaml:"home_dir" validate:"required"`
	TempDir             string           `yaml:"temp_dir" validate:"required"`
	TypePaths           []string         `yaml:"type_paths" validate:"dive,required"`
	Repository          RepositoryConfig `yaml:"repository"`
	Logging             LoggingConfig    `yaml:"logging"`
	Security            SecurityConfig   `yaml:"security"`
	DeploymentTimeoutMS int              `yaml:"deployment_timeout_ms" validate:"gte=0"`
}

// RepositoryConfig locates the artifact repository used by block compositions.
type RepositoryConfig struct {
	// Layout is the directory of an OCI image layout.
	Layout string `yaml:"layout"`
}

// LoggingConfig configures the root logging category and per-category levels.
type LoggingConfig struct {
	Level      string            `yaml:"level" validate:"omitempty,oneof=debug info warn error none"`
	Categories map[string]string `yaml:"categories" validate:"dive,oneof=debug info warn error none"`
}

// SecurityConfig configures capability security policies.
type SecurityConfig struct {
	Enabled bool `yaml:"enabled"`

	// Level defines the security policy: "strict", "standard", or "permissive"
	// - strict: Deny all broad capabilities
	// - standard: Deny capabilities that were not granted (default)
	// - permissive: Allow all capabilities with a warning
	Level string `yaml:"level" validate:"omitempty,oneof=strict standard permissive"`

	Grants []GrantConfig `yaml:"grants" validate:"dive"`
}

// GrantConfig grants capabilities to the models matching a source pattern.
type GrantConfig struct {
	// Source is a partition path pattern: "/app/db", "/app/*" or "/app/**".
	Source       string             `yaml:"source" validate:"required,startswith=/|eq=*"`
	Capabilities []CapabilityConfig `yaml:"capabilities" validate:"required,min=1,dive"`
}

// CapabilityConfig represents a capability in the system configuration.
type CapabilityConfig struct {
	Kind    string `yaml:"kind" validate:"required,oneof=fs network env exec"`
	Pattern string `yaml:"pattern" validate:"required"`
}

// SecurityLevel represents the security enforcement level.
type SecurityLevel string

const (
	// SecurityLevelStrict denies broad capabilities
	SecurityLevelStrict SecurityLevel = "strict"

	// SecurityLevelStandard denies capabilities that were not granted (default)
	SecurityLevelStandard SecurityLevel = "standard"

	// SecurityLevelPermissive allows all capabilities with a warning
	SecurityLevelPermissive SecurityLevel = "permissive"
)

// GetSecurityLevel returns the configured security level, defaulting to Standard.
func (c *SecurityConfig) GetSecurityLevel() SecurityLevel {
	switch c.Level {
	case "strict":
		return SecurityLevelStrict
	case "permissive":
		return SecurityLevelPermissive
	default:
		return SecurityLevelStandard
	}
}

// ConfigLoader loads system configuration from disk.
type ConfigLoader struct {
	validate *validator.Validate
}

// NewConfigLoader creates a new system config loader.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{validate: validator.New()}
}

// DefaultConfig returns a Config with safe defaults for all fields.
// This is used when no system config file exists.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return &Config{
		HomeDir:   filepath.Join(home, ".composer", "home"),
		TempDir:   filepath.Join(os.TempDir(), "composer"),
		TypePaths: []string{},
		Logging: LoggingConfig{
			Level:      "info",
			Categories: map[string]string{},
		},
		Security: SecurityConfig{
			Enabled: true,
			Level:   string(SecurityLevelStandard),
			Grants:  []GrantConfig{},
		},
		DeploymentTimeoutMS: 0, // 0 means no timeout unless a type declares one
	}
}

// Load loads the system configuration from the specified path.
// If the file does not exist, returns DefaultConfig() with safe defaults.
// Fields missing from the file keep their defaults.
func (l *ConfigLoader) Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	//nolint:gosec // G304: path is user-provided config file, validated to exist above
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}

	if err := l.Validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the struct constraints of config.
func (l *ConfigLoader) Validate(config *Config) error {
	err := l.validate.Struct(config)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("invalid system config: %w", err)
	}
	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid system config: %s", strings.Join(msgs, "; "))
}

// DeploymentTimeout returns the default per-component deployment timeout.
func (c *Config) DeploymentTimeout() time.Duration {
	return time.Duration(c.DeploymentTimeoutMS) * time.Millisecond
}

// GrantTable converts the configured grants into the domain grant table.
func (c *Config) GrantTable() *capabilities.GrantTable {
	table := capabilities.NewGrantTable()
	for _, g := range c.Security.Grants {
		caps := make([]capabilities.Capability, 0, len(g.Capabilities))
		for _, capability := range g.Capabilities {
			caps = append(caps, capabilities.Capability{
				Kind:    capability.Kind,
				Pattern: capability.Pattern,
			})
		}
		table.Add(g.Source, caps...)
	}
	return table
}

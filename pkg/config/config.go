// Package config loads engine configuration from config.yaml with environment
// variable overrides. Secrets (PGPASSWORD) must only come from environment
// variables.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	sqlgov "github.com/clearledger/governance-engine/pkg/sql"
)

// Config holds all configuration for the governance engine.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Governance holds the statement complexity thresholds.
	Governance sqlgov.ComplexityThresholds `yaml:"governance"`

	// Mapping holds the field-mapping policy knobs.
	Mapping MappingConfig `yaml:"mapping"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"governance"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"governance_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// MappingConfig holds the tunable parts of the field-mapping pipeline. The
// defaults mirror the shipped matching policy; RegistryPath points to an
// optional YAML overlay of additional archetypes.
type MappingConfig struct {
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" env:"MAPPING_FUZZY_THRESHOLD" env-default:"0.6"`
	FuzzyDiscount  float64 `yaml:"fuzzy_discount" env:"MAPPING_FUZZY_DISCOUNT" env-default:"0.7"`
	MinConfidence  float64 `yaml:"min_confidence" env:"MAPPING_MIN_CONFIDENCE" env-default:"0.5"`
	RegistryPath   string  `yaml:"registry_path" env:"MAPPING_REGISTRY_PATH" env-default:""`
}

// Load reads configuration from path with environment variable overrides.
// When the file does not exist, configuration comes from the environment
// alone. The version parameter is injected at build time.
func Load(path, version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Mapping.FuzzyThreshold <= 0 || c.Mapping.FuzzyThreshold > 1 {
		return fmt.Errorf("mapping.fuzzy_threshold %v outside (0,1]", c.Mapping.FuzzyThreshold)
	}
	if c.Mapping.FuzzyDiscount <= 0 || c.Mapping.FuzzyDiscount > 1 {
		return fmt.Errorf("mapping.fuzzy_discount %v outside (0,1]", c.Mapping.FuzzyDiscount)
	}
	if c.Mapping.MinConfidence < 0 || c.Mapping.MinConfidence >= 1 {
		return fmt.Errorf("mapping.min_confidence %v outside [0,1)", c.Mapping.MinConfidence)
	}
	if c.Governance.MaxStatementLength <= 0 || c.Governance.MaxJoins <= 0 || c.Governance.MaxNestingDepth <= 0 {
		return fmt.Errorf("governance thresholds must be positive")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsFromEnvOnly(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "test")
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10000, cfg.Governance.MaxStatementLength)
	assert.Equal(t, 5, cfg.Governance.MaxJoins)
	assert.Equal(t, 3, cfg.Governance.MaxNestingDepth)
	assert.InDelta(t, 0.6, cfg.Mapping.FuzzyThreshold, 1e-9)
	assert.InDelta(t, 0.7, cfg.Mapping.FuzzyDiscount, 1e-9)
	assert.InDelta(t, 0.5, cfg.Mapping.MinConfidence, 1e-9)
}

func TestLoad_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
env: production
log_level: warn
database:
  host: db.internal
  port: 5433
  database: gov
governance:
  max_statement_length: 5000
  max_joins: 3
  max_nesting_depth: 2
mapping:
  fuzzy_threshold: 0.65
  fuzzy_discount: 0.7
  min_confidence: 0.55
  registry_path: /etc/governance/archetypes.yaml
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path, "test")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 5000, cfg.Governance.MaxStatementLength)
	assert.InDelta(t, 0.65, cfg.Mapping.FuzzyThreshold, 1e-9)
	assert.Equal(t, "/etc/governance/archetypes.yaml", cfg.Mapping.RegistryPath)
}

func TestLoad_RejectsBadMappingPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
mapping:
  fuzzy_threshold: 1.5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	_, err := Load(path, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fuzzy_threshold")
}

func TestConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "governance",
		Password: "pw",
		Database: "governance_engine",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=governance password=pw dbname=governance_engine sslmode=disable",
		db.ConnectionString())
}

package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearledger/governance-engine/pkg/models"
)

func TestCheckDefaultForInjection_CleanValues(t *testing.T) {
	assert.Nil(t, CheckDefaultForInjection("customer_id", "12345"))
	assert.Nil(t, CheckDefaultForInjection("limit", 100))
	assert.Nil(t, CheckDefaultForInjection("enabled", true))
}

func TestCheckDefaultForInjection_DetectsPayload(t *testing.T) {
	finding := CheckDefaultForInjection("search", "'; DROP TABLE accounts--")
	require.NotNil(t, finding)
	assert.Equal(t, "search", finding.ParamName)
	assert.NotEmpty(t, finding.Fingerprint)
}

func TestCheckParameterDefaults(t *testing.T) {
	params := []models.QueryParameter{
		{Name: "customerId", Type: "string", Default: "C-1001"},
		{Name: "search", Type: "string", Default: "' OR 1=1--"},
		{Name: "minBalance", Type: "decimal", Default: 0.0},
		{Name: "noDefault", Type: "string"},
	}

	violations := CheckParameterDefaults(params)
	require.Len(t, violations, 1)
	assert.Equal(t, CodeSuspiciousParameter, violations[0].Code)
	assert.Contains(t, violations[0].Message, "search")
}

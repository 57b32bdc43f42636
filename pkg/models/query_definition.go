package models

import (
	"time"

	"github.com/google/uuid"
)

// QueryStatus is the lifecycle state of a query definition.
type QueryStatus string

const (
	StatusActive     QueryStatus = "active"
	StatusInactive   QueryStatus = "inactive"
	StatusDeprecated QueryStatus = "deprecated"
)

// QueryType restricts definitions to read-only statement shapes.
type QueryType string

const (
	QueryTypeReadOnlySelect QueryType = "read_only_select"
	QueryTypeReadOnlyWith   QueryType = "read_only_with"
)

// Execution policy bounds enforced at definition time. The execution engine
// owns runtime enforcement; we only validate the declared caps.
const (
	MinExecutionTimeSeconds = 1
	MaxExecutionTimeSeconds = 30
	MinResultRows           = 1
	MaxResultRows           = 100
)

// QueryParameter defines a single declared parameter for a query definition.
type QueryParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // string, integer, decimal, boolean, date, timestamp, uuid
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"` // nil if no default
}

// QueryDefinition is a named, versioned SQL artifact shared across batch
// configurations. The lifecycle service is its sole owner; the backing store
// is the persistence authority.
type QueryDefinition struct {
	ID                      uuid.UUID        `json:"id"`
	SourceSystem            string           `json:"source_system"`
	Name                    string           `json:"name"`
	SQLText                 string           `json:"sql_text"`
	QueryType               QueryType        `json:"query_type"`
	Description             string           `json:"description,omitempty"`
	DataClassification      string           `json:"data_classification,omitempty"`
	SecurityClassification  string           `json:"security_classification,omitempty"`
	MaxExecutionTimeSeconds int              `json:"max_execution_time_seconds"`
	MaxResultRows           int              `json:"max_result_rows"`
	Parameters              []QueryParameter `json:"parameters,omitempty"`
	Status                  QueryStatus      `json:"status"`
	Version                 int              `json:"version"`
	CreatedBy               string           `json:"created_by"`
	CreatedAt               time.Time        `json:"created_at"`
	UpdatedBy               string           `json:"updated_by,omitempty"`
	UpdatedAt               time.Time        `json:"updated_at"`
	LastCorrelationID       uuid.UUID        `json:"last_correlation_id"`
}

// IsTerminal reports whether the definition has reached its terminal state.
// Deprecated records accept no further transitions.
func (q *QueryDefinition) IsTerminal() bool {
	return q.Status == StatusDeprecated
}

// ParameterNames returns the declared parameter names in declaration order.
func (q *QueryDefinition) ParameterNames() []string {
	names := make([]string, len(q.Parameters))
	for i, p := range q.Parameters {
		names[i] = p.Name
	}
	return names
}

// CanTransitionTo reports whether the state machine permits moving from the
// current status to target. Active and Inactive are mutually reversible;
// Deprecated is reachable from anywhere and never left.
func (q *QueryDefinition) CanTransitionTo(target QueryStatus) bool {
	if q.Status == StatusDeprecated {
		return false
	}
	switch target {
	case StatusActive, StatusInactive, StatusDeprecated:
		return true
	default:
		return false
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Governance event types emitted by the lifecycle service. Rejected attempts
// get their own event type so a failed mutation remains traceable.
const (
	EventQueryCreated       = "query.created"
	EventQueryUpdated       = "query.updated"
	EventQueryDeleted       = "query.deleted"
	EventQueryStatusChanged = "query.status_changed"
	EventQueryRejected      = "query.rejected"
)

// GovernanceEvent is one structured audit record keyed by correlation ID.
// Stored in governance_events; written through the audit bridge.
type GovernanceEvent struct {
	ID            uuid.UUID      `json:"id"`
	CorrelationID uuid.UUID      `json:"correlation_id"`
	EventType     string         `json:"event_type"`
	EntityID      *uuid.UUID     `json:"entity_id,omitempty"` // nil when the attempt never reached a record
	Payload       map[string]any `json:"payload,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

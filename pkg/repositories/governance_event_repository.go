package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearledger/governance-engine/pkg/database"
	"github.com/clearledger/governance-engine/pkg/models"
)

// GovernanceEventRepository persists correlation-keyed audit events.
type GovernanceEventRepository interface {
	Create(ctx context.Context, event *models.GovernanceEvent) error
	GetByCorrelationID(ctx context.Context, correlationID uuid.UUID) ([]*models.GovernanceEvent, error)
}

type governanceEventRepository struct {
	db *database.DB
}

// NewGovernanceEventRepository creates a Postgres-backed event repository.
func NewGovernanceEventRepository(db *database.DB) GovernanceEventRepository {
	return &governanceEventRepository{db: db}
}

var _ GovernanceEventRepository = (*governanceEventRepository)(nil)

func (r *governanceEventRepository) Create(ctx context.Context, event *models.GovernanceEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now()

	sql := `
		INSERT INTO governance_events (id, correlation_id, event_type, entity_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, sql,
		event.ID, event.CorrelationID, event.EventType, event.EntityID, event.Payload, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create governance event: %w", err)
	}

	return nil
}

func (r *governanceEventRepository) GetByCorrelationID(ctx context.Context, correlationID uuid.UUID) ([]*models.GovernanceEvent, error) {
	sql := `
		SELECT id, correlation_id, event_type, entity_id, payload, created_at
		FROM governance_events
		WHERE correlation_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, sql, correlationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query governance events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.GovernanceEvent, 0)
	for rows.Next() {
		var e models.GovernanceEvent
		if err := rows.Scan(&e.ID, &e.CorrelationID, &e.EventType, &e.EntityID, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan governance event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating governance events: %w", err)
	}

	return events, nil
}

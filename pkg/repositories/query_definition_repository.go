// Package repositories provides PostgreSQL data access for query definitions
// and governance audit events.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clearledger/governance-engine/pkg/apperrors"
	"github.com/clearledger/governance-engine/pkg/database"
	"github.com/clearledger/governance-engine/pkg/models"
)

// QueryDefinitionRepository is the persistence contract for query
// definitions. UpdateWithVersion must distinguish a version conflict from a
// missing record so the lifecycle service never conflates the two.
type QueryDefinitionRepository interface {
	Create(ctx context.Context, def *models.QueryDefinition) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.QueryDefinition, error)
	// GetByName looks up a non-deprecated definition by name within a source
	// system. Deprecated records do not participate in uniqueness.
	GetByName(ctx context.Context, sourceSystem, name string) (*models.QueryDefinition, error)
	// UpdateWithVersion performs a conditional write: the row is updated only
	// if its stored version equals expectedVersion, and the new version is
	// expectedVersion+1. Returns apperrors.ErrVersionConflict on mismatch,
	// apperrors.ErrNotFound if the row is absent, apperrors.ErrDeprecated if
	// the row is terminal.
	UpdateWithVersion(ctx context.Context, def *models.QueryDefinition, expectedVersion int) error
	// SetStatus changes only the lifecycle status. Deprecated rows are never
	// modified.
	SetStatus(ctx context.Context, id uuid.UUID, status models.QueryStatus, updatedBy string, correlationID uuid.UUID) error
	ListBySourceSystem(ctx context.Context, sourceSystem string) ([]*models.QueryDefinition, error)
}

type queryDefinitionRepository struct {
	db *database.DB
}

// NewQueryDefinitionRepository creates a Postgres-backed repository.
func NewQueryDefinitionRepository(db *database.DB) QueryDefinitionRepository {
	return &queryDefinitionRepository{db: db}
}

var _ QueryDefinitionRepository = (*queryDefinitionRepository)(nil)

const queryDefinitionColumns = `
	id, source_system, name, sql_text, query_type, description,
	data_classification, security_classification,
	max_execution_time_seconds, max_result_rows, parameters,
	status, version, created_by, created_at, updated_by, updated_at,
	last_correlation_id`

func (r *queryDefinitionRepository) Create(ctx context.Context, def *models.QueryDefinition) error {
	now := time.Now()
	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}
	def.CreatedAt = now
	def.UpdatedAt = now

	sql := `
		INSERT INTO query_definitions (
			id, source_system, name, sql_text, query_type, description,
			data_classification, security_classification,
			max_execution_time_seconds, max_result_rows, parameters,
			status, version, created_by, created_at, updated_by, updated_at,
			last_correlation_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := r.db.Exec(ctx, sql,
		def.ID, def.SourceSystem, def.Name, def.SQLText, def.QueryType, def.Description,
		def.DataClassification, def.SecurityClassification,
		def.MaxExecutionTimeSeconds, def.MaxResultRows, def.Parameters,
		def.Status, def.Version, def.CreatedBy, def.CreatedAt, def.UpdatedBy, def.UpdatedAt,
		def.LastCorrelationID,
	)
	if err != nil {
		return fmt.Errorf("failed to create query definition: %w", err)
	}

	return nil
}

func (r *queryDefinitionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.QueryDefinition, error) {
	sql := `SELECT` + queryDefinitionColumns + `
		FROM query_definitions
		WHERE id = $1`

	def, err := scanQueryDefinition(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get query definition: %w", err)
	}

	return def, nil
}

func (r *queryDefinitionRepository) GetByName(ctx context.Context, sourceSystem, name string) (*models.QueryDefinition, error) {
	sql := `SELECT` + queryDefinitionColumns + `
		FROM query_definitions
		WHERE source_system = $1 AND name = $2 AND status != $3`

	def, err := scanQueryDefinition(r.db.QueryRow(ctx, sql, sourceSystem, name, models.StatusDeprecated))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get query definition by name: %w", err)
	}

	return def, nil
}

func (r *queryDefinitionRepository) UpdateWithVersion(ctx context.Context, def *models.QueryDefinition, expectedVersion int) error {
	def.UpdatedAt = time.Now()
	def.Version = expectedVersion + 1

	sql := `
		UPDATE query_definitions
		SET name = $3,
		    sql_text = $4,
		    query_type = $5,
		    description = $6,
		    data_classification = $7,
		    security_classification = $8,
		    max_execution_time_seconds = $9,
		    max_result_rows = $10,
		    parameters = $11,
		    status = $12,
		    version = $2 + 1,
		    updated_by = $13,
		    updated_at = $14,
		    last_correlation_id = $15
		WHERE id = $1 AND version = $2 AND status != $16`

	result, err := r.db.Exec(ctx, sql,
		def.ID, expectedVersion,
		def.Name, def.SQLText, def.QueryType, def.Description,
		def.DataClassification, def.SecurityClassification,
		def.MaxExecutionTimeSeconds, def.MaxResultRows, def.Parameters,
		def.Status, def.UpdatedBy, def.UpdatedAt, def.LastCorrelationID,
		models.StatusDeprecated,
	)
	if err != nil {
		return fmt.Errorf("failed to update query definition: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.classifyMissedWrite(ctx, def.ID)
	}

	return nil
}

func (r *queryDefinitionRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.QueryStatus, updatedBy string, correlationID uuid.UUID) error {
	sql := `
		UPDATE query_definitions
		SET status = $2, updated_by = $3, updated_at = NOW(), last_correlation_id = $4
		WHERE id = $1 AND status != $5`

	result, err := r.db.Exec(ctx, sql, id, status, updatedBy, correlationID, models.StatusDeprecated)
	if err != nil {
		return fmt.Errorf("failed to set query definition status: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the row is missing or it is already terminal.
		var current models.QueryStatus
		err := r.db.QueryRow(ctx, `SELECT status FROM query_definitions WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to classify missed status write: %w", err)
		}
		return apperrors.ErrDeprecated
	}

	return nil
}

func (r *queryDefinitionRepository) ListBySourceSystem(ctx context.Context, sourceSystem string) ([]*models.QueryDefinition, error) {
	sql := `SELECT` + queryDefinitionColumns + `
		FROM query_definitions
		WHERE source_system = $1
		ORDER BY name ASC`

	rows, err := r.db.Query(ctx, sql, sourceSystem)
	if err != nil {
		return nil, fmt.Errorf("failed to list query definitions: %w", err)
	}
	defer rows.Close()

	defs := make([]*models.QueryDefinition, 0)
	for rows.Next() {
		def, err := scanQueryDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query definition: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query definitions: %w", err)
	}

	return defs, nil
}

// classifyMissedWrite disambiguates a conditional update that touched no
// rows: missing record, terminal record, or stale expected version.
func (r *queryDefinitionRepository) classifyMissedWrite(ctx context.Context, id uuid.UUID) error {
	var status models.QueryStatus
	err := r.db.QueryRow(ctx, `SELECT status FROM query_definitions WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to classify missed write: %w", err)
	}
	if status == models.StatusDeprecated {
		return apperrors.ErrDeprecated
	}
	return apperrors.ErrVersionConflict
}

func scanQueryDefinition(row pgx.Row) (*models.QueryDefinition, error) {
	var def models.QueryDefinition
	err := row.Scan(
		&def.ID, &def.SourceSystem, &def.Name, &def.SQLText, &def.QueryType, &def.Description,
		&def.DataClassification, &def.SecurityClassification,
		&def.MaxExecutionTimeSeconds, &def.MaxResultRows, &def.Parameters,
		&def.Status, &def.Version, &def.CreatedBy, &def.CreatedAt, &def.UpdatedBy, &def.UpdatedAt,
		&def.LastCorrelationID,
	)
	if err != nil {
		return nil, err
	}
	return &def, nil
}

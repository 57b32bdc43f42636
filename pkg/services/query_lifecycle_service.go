// Package services contains the business logic of the governance engine: the
// query definition lifecycle and the field-mapping suggestion pipeline.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clearledger/governance-engine/pkg/apperrors"
	"github.com/clearledger/governance-engine/pkg/audit"
	"github.com/clearledger/governance-engine/pkg/logging"
	"github.com/clearledger/governance-engine/pkg/models"
	"github.com/clearledger/governance-engine/pkg/repositories"
	sqlgov "github.com/clearledger/governance-engine/pkg/sql"
)

// CreateQueryRequest carries everything needed to register a new query
// definition.
type CreateQueryRequest struct {
	SourceSystem            string
	Name                    string
	Description             string
	QueryType               models.QueryType
	SQLText                 string
	DataClassification      string
	SecurityClassification  string
	MaxExecutionTimeSeconds int
	MaxResultRows           int
	Parameters              []models.QueryParameter
	RequestedBy             string
}

// UpdateQueryRequest is a partial update: nil fields keep their stored value.
type UpdateQueryRequest struct {
	Name                    *string
	Description             *string
	QueryType               *models.QueryType
	SQLText                 *string
	DataClassification      *string
	SecurityClassification  *string
	MaxExecutionTimeSeconds *int
	MaxResultRows           *int
	Parameters              *[]models.QueryParameter
	RequestedBy             string
}

// DeletionResult confirms a soft delete.
type DeletionResult struct {
	ID            uuid.UUID
	CorrelationID uuid.UUID
	DeletedAt     time.Time
}

// UsageOracle answers whether a query definition is currently referenced by
// an active consumer. It is an external collaborator.
type UsageOracle interface {
	InUse(ctx context.Context, id uuid.UUID) (bool, error)
}

// QueryLifecycleService owns query definitions: all mutations flow through it
// and every mutation carries a fresh correlation ID into validation,
// persistence, and the audit bridge.
type QueryLifecycleService interface {
	Create(ctx context.Context, req CreateQueryRequest) (*models.QueryDefinition, error)
	Update(ctx context.Context, id uuid.UUID, expectedVersion int, req UpdateQueryRequest) (*models.QueryDefinition, error)
	SoftDelete(ctx context.Context, id uuid.UUID, justification, requestedBy string) (*DeletionResult, error)
	// SetStatus toggles Active<->Inactive under the same optimistic version
	// check as Update. Deprecation is only reachable through SoftDelete.
	SetStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status models.QueryStatus, requestedBy string) (*models.QueryDefinition, error)
	Get(ctx context.Context, id uuid.UUID) (*models.QueryDefinition, error)
	List(ctx context.Context, sourceSystem string) ([]*models.QueryDefinition, error)
}

type queryLifecycleService struct {
	repo       repositories.QueryDefinitionRepository
	oracle     UsageOracle
	bridge     audit.Bridge
	thresholds sqlgov.ComplexityThresholds
	logger     *zap.Logger
}

// NewQueryLifecycleService wires the lifecycle service with its
// collaborators.
func NewQueryLifecycleService(
	repo repositories.QueryDefinitionRepository,
	oracle UsageOracle,
	bridge audit.Bridge,
	thresholds sqlgov.ComplexityThresholds,
	logger *zap.Logger,
) QueryLifecycleService {
	return &queryLifecycleService{
		repo:       repo,
		oracle:     oracle,
		bridge:     bridge,
		thresholds: thresholds,
		logger:     logger.Named("query-lifecycle"),
	}
}

var _ QueryLifecycleService = (*queryLifecycleService)(nil)

func (s *queryLifecycleService) Create(ctx context.Context, req CreateQueryRequest) (*models.QueryDefinition, error) {
	correlationID := uuid.New()

	violations := checkRequiredFields(req)
	violations = append(violations, checkQueryType(req.QueryType)...)
	violations = append(violations, checkExecutionCaps(req.MaxExecutionTimeSeconds, req.MaxResultRows)...)
	violations = append(violations, checkSQL(req.SQLText, req.Parameters, s.thresholds)...)
	if len(violations) > 0 {
		return nil, s.reject(ctx, correlationID, nil, req.SourceSystem, req.Name, violations)
	}

	if err := s.checkNameAvailable(ctx, correlationID, req.SourceSystem, req.Name); err != nil {
		return nil, err
	}

	now := time.Now()
	def := &models.QueryDefinition{
		ID:                      uuid.New(),
		SourceSystem:            req.SourceSystem,
		Name:                    req.Name,
		SQLText:                 req.SQLText,
		QueryType:               req.QueryType,
		Description:             req.Description,
		DataClassification:      req.DataClassification,
		SecurityClassification:  req.SecurityClassification,
		MaxExecutionTimeSeconds: req.MaxExecutionTimeSeconds,
		MaxResultRows:           req.MaxResultRows,
		Parameters:              req.Parameters,
		Status:                  models.StatusActive,
		Version:                 1,
		CreatedBy:               req.RequestedBy,
		CreatedAt:               now,
		UpdatedAt:               now,
		LastCorrelationID:       correlationID,
	}

	if err := s.repo.Create(ctx, def); err != nil {
		return nil, fmt.Errorf("create query definition [%s]: %w", correlationID, err)
	}

	s.logger.Info("Query definition created",
		zap.String("correlation_id", correlationID.String()),
		zap.String("source_system", def.SourceSystem),
		zap.String("name", def.Name),
		zap.String("sql", logging.SanitizeQuery(def.SQLText)))

	s.bridge.Emit(ctx, correlationID, models.EventQueryCreated, map[string]any{
		"query_id":      def.ID,
		"source_system": def.SourceSystem,
		"name":          def.Name,
		"version":       def.Version,
	})

	return def, nil
}

func (s *queryLifecycleService) Update(ctx context.Context, id uuid.UUID, expectedVersion int, req UpdateQueryRequest) (*models.QueryDefinition, error) {
	correlationID := uuid.New()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update query definition [%s]: %w", correlationID, err)
	}
	if current.IsTerminal() {
		return nil, fmt.Errorf("update query definition [%s]: %w", correlationID, apperrors.ErrDeprecated)
	}
	if current.Version != expectedVersion {
		return nil, fmt.Errorf("update query definition [%s]: expected version %d, stored version %d: %w",
			correlationID, expectedVersion, current.Version, apperrors.ErrVersionConflict)
	}

	updated := *current
	sqlChanged := applyChanges(&updated, req)
	updated.UpdatedBy = req.RequestedBy
	updated.LastCorrelationID = correlationID

	var violations []apperrors.Violation
	violations = append(violations, checkQueryType(updated.QueryType)...)
	violations = append(violations, checkExecutionCaps(updated.MaxExecutionTimeSeconds, updated.MaxResultRows)...)
	if sqlChanged {
		violations = append(violations, checkSQL(updated.SQLText, updated.Parameters, s.thresholds)...)
	}
	if len(violations) > 0 {
		return nil, s.reject(ctx, correlationID, &id, updated.SourceSystem, updated.Name, violations)
	}

	if updated.Name != current.Name {
		if err := s.checkNameAvailable(ctx, correlationID, updated.SourceSystem, updated.Name); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateWithVersion(ctx, &updated, expectedVersion); err != nil {
		return nil, fmt.Errorf("update query definition [%s]: %w", correlationID, err)
	}

	s.bridge.Emit(ctx, correlationID, models.EventQueryUpdated, map[string]any{
		"query_id": updated.ID,
		"name":     updated.Name,
		"version":  updated.Version,
	})

	return &updated, nil
}

func (s *queryLifecycleService) SoftDelete(ctx context.Context, id uuid.UUID, justification, requestedBy string) (*DeletionResult, error) {
	correlationID := uuid.New()

	if violations := checkJustification(justification); len(violations) > 0 {
		return nil, s.reject(ctx, correlationID, &id, "", "", violations)
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("delete query definition [%s]: %w", correlationID, err)
	}

	inUse, err := s.oracle.InUse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete query definition [%s]: usage check: %w", correlationID, err)
	}
	if inUse {
		s.bridge.Emit(ctx, correlationID, models.EventQueryRejected, map[string]any{
			"query_id": id,
			"reason":   "in_use",
		})
		return nil, fmt.Errorf("delete query definition [%s]: %w", correlationID, apperrors.ErrInUse)
	}

	if err := s.repo.SetStatus(ctx, id, models.StatusDeprecated, requestedBy, correlationID); err != nil {
		return nil, fmt.Errorf("delete query definition [%s]: %w", correlationID, err)
	}

	s.bridge.Emit(ctx, correlationID, models.EventQueryDeleted, map[string]any{
		"query_id":      id,
		"justification": justification,
	})

	return &DeletionResult{ID: id, CorrelationID: correlationID, DeletedAt: time.Now()}, nil
}

func (s *queryLifecycleService) SetStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status models.QueryStatus, requestedBy string) (*models.QueryDefinition, error) {
	correlationID := uuid.New()

	if status != models.StatusActive && status != models.StatusInactive {
		return nil, s.reject(ctx, correlationID, &id, "", "", []apperrors.Violation{{
			Code:    CodeInvalidStatusTransition,
			Message: fmt.Sprintf("status %q is not reachable through toggling; deprecation requires a delete", status),
		}})
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("set query status [%s]: %w", correlationID, err)
	}
	if !current.CanTransitionTo(status) {
		return nil, fmt.Errorf("set query status [%s]: %w", correlationID, apperrors.ErrDeprecated)
	}
	if current.Version != expectedVersion {
		return nil, fmt.Errorf("set query status [%s]: %w", correlationID, apperrors.ErrVersionConflict)
	}

	updated := *current
	updated.Status = status
	updated.UpdatedBy = requestedBy
	updated.LastCorrelationID = correlationID

	if err := s.repo.UpdateWithVersion(ctx, &updated, expectedVersion); err != nil {
		return nil, fmt.Errorf("set query status [%s]: %w", correlationID, err)
	}

	s.bridge.Emit(ctx, correlationID, models.EventQueryStatusChanged, map[string]any{
		"query_id": updated.ID,
		"status":   string(status),
		"version":  updated.Version,
	})

	return &updated, nil
}

func (s *queryLifecycleService) Get(ctx context.Context, id uuid.UUID) (*models.QueryDefinition, error) {
	def, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get query definition: %w", err)
	}
	return def, nil
}

func (s *queryLifecycleService) List(ctx context.Context, sourceSystem string) ([]*models.QueryDefinition, error) {
	defs, err := s.repo.ListBySourceSystem(ctx, sourceSystem)
	if err != nil {
		return nil, fmt.Errorf("list query definitions: %w", err)
	}
	return defs, nil
}

// checkNameAvailable enforces name uniqueness within a source system among
// non-deprecated records.
func (s *queryLifecycleService) checkNameAvailable(ctx context.Context, correlationID uuid.UUID, sourceSystem, name string) error {
	existing, err := s.repo.GetByName(ctx, sourceSystem, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("uniqueness check [%s]: %w", correlationID, err)
	}

	return s.reject(ctx, correlationID, &existing.ID, sourceSystem, name, []apperrors.Violation{{
		Code:    CodeDuplicateName,
		Message: fmt.Sprintf("query %q already exists in source system %q", name, sourceSystem),
	}})
}

// reject emits a rejection event and returns the validation error. Rejected
// attempts keep their correlation ID so they stay traceable even though
// nothing was persisted.
func (s *queryLifecycleService) reject(ctx context.Context, correlationID uuid.UUID, id *uuid.UUID, sourceSystem, name string, violations []apperrors.Violation) error {
	codes := make([]string, len(violations))
	for i, v := range violations {
		codes[i] = v.Code
	}

	payload := map[string]any{"violations": codes}
	if id != nil {
		payload["query_id"] = *id
	}
	if sourceSystem != "" {
		payload["source_system"] = sourceSystem
	}
	if name != "" {
		payload["name"] = name
	}
	s.bridge.Emit(ctx, correlationID, models.EventQueryRejected, payload)

	return apperrors.NewValidationError(correlationID, violations...)
}

// applyChanges copies the set fields of req onto def and reports whether the
// statement or its declared parameters changed, which forces revalidation.
func applyChanges(def *models.QueryDefinition, req UpdateQueryRequest) bool {
	sqlChanged := false
	if req.Name != nil {
		def.Name = *req.Name
	}
	if req.Description != nil {
		def.Description = *req.Description
	}
	if req.QueryType != nil {
		def.QueryType = *req.QueryType
	}
	if req.SQLText != nil && *req.SQLText != def.SQLText {
		def.SQLText = *req.SQLText
		sqlChanged = true
	}
	if req.DataClassification != nil {
		def.DataClassification = *req.DataClassification
	}
	if req.SecurityClassification != nil {
		def.SecurityClassification = *req.SecurityClassification
	}
	if req.MaxExecutionTimeSeconds != nil {
		def.MaxExecutionTimeSeconds = *req.MaxExecutionTimeSeconds
	}
	if req.MaxResultRows != nil {
		def.MaxResultRows = *req.MaxResultRows
	}
	if req.Parameters != nil {
		def.Parameters = *req.Parameters
		sqlChanged = true
	}
	return sqlChanged
}

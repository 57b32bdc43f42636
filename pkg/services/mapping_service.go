package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearledger/governance-engine/pkg/mapping"
	"github.com/clearledger/governance-engine/pkg/models"
)

// ColumnMetadataProvider supplies the ordered column list for a table or
// query. It is an external collaborator; the mapping service never mutates
// what it returns.
type ColumnMetadataProvider interface {
	Columns(ctx context.Context, tableID string) ([]models.ColumnMetadata, error)
}

// MappingService produces ranked field-mapping suggestions for source
// columns. Scoring is pure and deterministic: identical inputs yield an
// identical ordered list.
type MappingService interface {
	SuggestFieldMappings(ctx context.Context, columns []models.ColumnMetadata, targetContext string) []models.MappingSuggestion
	SuggestForTable(ctx context.Context, tableID, targetContext string) ([]models.MappingSuggestion, error)
	RescoreMappings(ctx context.Context, suggestions []models.MappingSuggestion) []models.MappingSuggestion
}

type mappingService struct {
	matcher  *mapping.Matcher
	scorer   *mapping.Scorer
	provider ColumnMetadataProvider
	logger   *zap.Logger
}

// NewMappingService wires the matcher and scorer over the given registry.
// provider may be nil when only the direct column-list entry point is used.
func NewMappingService(matcher *mapping.Matcher, scorer *mapping.Scorer, provider ColumnMetadataProvider, logger *zap.Logger) MappingService {
	return &mappingService{
		matcher:  matcher,
		scorer:   scorer,
		provider: provider,
		logger:   logger.Named("field-mapping"),
	}
}

var _ MappingService = (*mappingService)(nil)

func (s *mappingService) SuggestFieldMappings(ctx context.Context, columns []models.ColumnMetadata, targetContext string) []models.MappingSuggestion {
	suggestions := make([]models.MappingSuggestion, 0, len(columns))

	for _, column := range columns {
		candidates := s.matcher.Match(column.Name)
		suggestion, ok := s.scorer.SelectBest(column, candidates, targetContext)
		if !ok {
			continue
		}
		suggestions = append(suggestions, suggestion)
	}

	mapping.Rank(suggestions)

	s.logger.Debug("Field mappings suggested",
		zap.Int("columns", len(columns)),
		zap.Int("suggestions", len(suggestions)))

	return suggestions
}

func (s *mappingService) SuggestForTable(ctx context.Context, tableID, targetContext string) ([]models.MappingSuggestion, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("no column metadata provider configured")
	}

	columns, err := s.provider.Columns(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("fetch columns for %q: %w", tableID, err)
	}

	return s.SuggestFieldMappings(ctx, columns, targetContext), nil
}

func (s *mappingService) RescoreMappings(_ context.Context, suggestions []models.MappingSuggestion) []models.MappingSuggestion {
	return s.scorer.Rescore(suggestions)
}

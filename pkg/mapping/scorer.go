package mapping

import (
	"regexp"
	"sort"
	"strings"

	"github.com/clearledger/governance-engine/pkg/models"
)

// DefaultMinConfidence is the selection floor: a suggestion at or below it is
// discarded.
const DefaultMinConfidence = 0.5

// Scoring adjustments. Independent and additive; the result is clamped to
// [0,1] after all apply, so ordering is irrelevant.
const (
	adjTypeFamilyMatch      = 0.05
	adjSensitiveMasking     = 0.03
	adjBusinessConceptMatch = 0.02
	adjNullableIdentifier   = -0.05
	adjContextRelation      = 0.03
	adjLeadingIdentifier    = 0.02
)

// Rescoring adjustments applied by Rescore.
const (
	rescoreNamingPenalty      = 0.8
	rescoreComplianceBonus    = 0.05
	rescoreConceptOverlap     = 0.03
	targetFieldMinLen         = 3
	targetFieldMaxLen         = 50
)

// targetFieldNamePattern accepts lowercase hyphen-separated tokens.
var targetFieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// domainKeywords are the business domains whose co-occurrence between target
// context and archetype concept earns the context adjustment.
var domainKeywords = []string{"account", "transaction", "customer"}

// Scorer converts matcher candidates into final confidences and suggestions.
type Scorer struct {
	minConfidence float64
}

// NewScorer builds a scorer with the default selection floor.
func NewScorer() *Scorer {
	return &Scorer{minConfidence: DefaultMinConfidence}
}

// NewScorerWithFloor builds a scorer with an explicit selection floor.
func NewScorerWithFloor(minConfidence float64) *Scorer {
	return &Scorer{minConfidence: minConfidence}
}

// Score computes the final confidence for one candidate against one column.
func (s *Scorer) Score(column models.ColumnMetadata, candidate Candidate, targetContext string) float64 {
	a := candidate.Archetype
	confidence := candidate.Confidence

	if declaredTypeFamily(column.DataType) == a.TypeFamily {
		confidence += adjTypeFamilyMatch
	}
	if a.RequiresMasking && strings.EqualFold(column.Classification, models.ClassificationSensitive) {
		confidence += adjSensitiveMasking
	}
	if a.BusinessConcept != "" && strings.Contains(strings.ToLower(column.Description), a.BusinessConcept) {
		confidence += adjBusinessConceptMatch
	}
	if column.Nullable && a.ImpliesIdentifier() {
		confidence += adjNullableIdentifier
	}
	if contextRelatesTo(targetContext, a) {
		confidence += adjContextRelation
	}
	if column.OrdinalPosition == 1 && a.ImpliesIdentifier() {
		confidence += adjLeadingIdentifier
	}

	return clamp01(confidence)
}

// SelectBest applies the per-column selection policy: exact-match candidates
// are preferred over fuzzy ones; among the preferred group only the single
// highest-scoring candidate survives; a survivor at or below the selection
// floor is discarded.
func (s *Scorer) SelectBest(column models.ColumnMetadata, candidates []Candidate, targetContext string) (models.MappingSuggestion, bool) {
	if len(candidates) == 0 {
		return models.MappingSuggestion{}, false
	}

	pool := candidates
	if exact := filterByType(candidates, models.MatchExact); len(exact) > 0 {
		pool = exact
	}

	var best Candidate
	bestScore := -1.0
	for _, c := range pool {
		if score := s.Score(column, c, targetContext); score > bestScore {
			best = c
			bestScore = score
		}
	}

	if bestScore <= s.minConfidence {
		return models.MappingSuggestion{}, false
	}

	return buildSuggestion(column, best, bestScore), true
}

// Rank sorts suggestions by confidence descending, breaking ties by source
// ordinal ascending.
func Rank(suggestions []models.MappingSuggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}
		return suggestions[i].SourceOrdinal < suggestions[j].SourceOrdinal
	})
}

// Rescore adjusts already-produced suggestions: a naming-check failure on the
// target field multiplies confidence by 0.8; non-empty compliance tags add
// 0.05; textual overlap between the business concept and the target field
// name adds 0.03. Confidence is clamped to [0,1]. Input order is preserved;
// a fresh slice is returned.
func (s *Scorer) Rescore(suggestions []models.MappingSuggestion) []models.MappingSuggestion {
	out := make([]models.MappingSuggestion, len(suggestions))
	for i, sg := range suggestions {
		confidence := sg.Confidence
		if !validTargetFieldName(sg.TargetField) {
			confidence *= rescoreNamingPenalty
		}
		if len(sg.ComplianceTags) > 0 {
			confidence += rescoreComplianceBonus
		}
		if sg.BusinessConcept != "" && strings.Contains(sg.TargetField, sg.BusinessConcept) {
			confidence += rescoreConceptOverlap
		}
		sg.Confidence = clamp01(confidence)
		out[i] = sg
	}
	return out
}

func buildSuggestion(column models.ColumnMetadata, c Candidate, confidence float64) models.MappingSuggestion {
	a := c.Archetype
	transformation := models.TransformDirect
	if a.RequiresMasking {
		transformation = models.TransformMask
	}
	return models.MappingSuggestion{
		SourceColumn:    column.Name,
		SourceOrdinal:   column.OrdinalPosition,
		TargetField:     a.TargetFieldName(),
		Archetype:       a.CanonicalName,
		Confidence:      confidence,
		Transformation:  transformation,
		Classification:  column.Classification,
		ComplianceTags:  a.ComplianceTags,
		BusinessConcept: a.BusinessConcept,
		MatchType:       c.MatchType,
	}
}

func filterByType(candidates []Candidate, matchType models.MatchType) []Candidate {
	var filtered []Candidate
	for _, c := range candidates {
		if c.MatchType == matchType {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func validTargetFieldName(name string) bool {
	if len(name) < targetFieldMinLen || len(name) > targetFieldMaxLen {
		return false
	}
	return targetFieldNamePattern.MatchString(name)
}

// declaredTypeFamily buckets a declared column type into a type family.
func declaredTypeFamily(dataType string) TypeFamily {
	t := strings.ToUpper(strings.TrimSpace(dataType))
	// Strip precision suffixes like VARCHAR(34) or NUMBER(10,2).
	if i := strings.IndexByte(t, '('); i > 0 {
		t = t[:i]
	}

	switch t {
	case "VARCHAR", "VARCHAR2", "CHAR", "NVARCHAR", "NCHAR", "TEXT", "STRING", "CLOB":
		return TypeFamilyString
	case "NUMBER", "NUMERIC", "DECIMAL", "INT", "INTEGER", "SMALLINT", "BIGINT", "FLOAT", "DOUBLE", "REAL", "MONEY":
		return TypeFamilyNumeric
	case "DATE", "TIME", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return TypeFamilyTemporal
	default:
		return ""
	}
}

// contextRelatesTo reports whether the free-text target context and the
// archetype's business concept co-occur on a domain keyword.
func contextRelatesTo(targetContext string, a *FieldArchetype) bool {
	if targetContext == "" {
		return false
	}
	ctx := strings.ToLower(targetContext)
	for _, kw := range domainKeywords {
		if a.BusinessConcept == kw && strings.Contains(ctx, kw) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

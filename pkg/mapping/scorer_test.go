package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearledger/governance-engine/pkg/models"
)

func accountNumberCandidate(t *testing.T) Candidate {
	t.Helper()
	a, ok := BuiltinRegistry().Lookup("ACCOUNT_NUMBER")
	require.True(t, ok)
	return Candidate{Archetype: a, Confidence: a.BaseConfidence, MatchType: models.MatchExact}
}

func TestScore_TypeFamilyAdjustment(t *testing.T) {
	scorer := NewScorer()
	candidate := accountNumberCandidate(t)

	base := scorer.Score(models.ColumnMetadata{Name: "account_number", DataType: "BLOB", OrdinalPosition: 2}, candidate, "")
	typed := scorer.Score(models.ColumnMetadata{Name: "account_number", DataType: "VARCHAR(34)", OrdinalPosition: 2}, candidate, "")
	assert.InDelta(t, 0.05, typed-base, 1e-9)
}

func TestScore_SensitiveMaskingAdjustment(t *testing.T) {
	scorer := NewScorer()
	candidate := accountNumberCandidate(t)

	plain := scorer.Score(models.ColumnMetadata{Name: "account_number", DataType: "BLOB", OrdinalPosition: 2}, candidate, "")
	sensitive := scorer.Score(models.ColumnMetadata{Name: "account_number", DataType: "BLOB", OrdinalPosition: 2, Classification: "sensitive"}, candidate, "")
	assert.InDelta(t, 0.03, sensitive-plain, 1e-9)
}

func TestScore_NullableIdentifierPenalty(t *testing.T) {
	scorer := NewScorer()
	candidate := accountNumberCandidate(t)

	solid := scorer.Score(models.ColumnMetadata{Name: "account_number", DataType: "BLOB", OrdinalPosition: 2}, candidate, "")
	nullable := scorer.Score(models.ColumnMetadata{Name: "account_number", DataType: "BLOB", OrdinalPosition: 2, Nullable: true}, candidate, "")
	assert.InDelta(t, -0.05, nullable-solid, 1e-9)
}

func TestScore_ContextAndOrdinalAdjustments(t *testing.T) {
	scorer := NewScorer()
	candidate := accountNumberCandidate(t)

	base := scorer.Score(models.ColumnMetadata{Name: "account_number", DataType: "BLOB", OrdinalPosition: 2}, candidate, "")
	withContext := scorer.Score(models.ColumnMetadata{Name: "account_number", DataType: "BLOB", OrdinalPosition: 2}, candidate, "nightly account reconciliation feed")
	assert.InDelta(t, 0.03, withContext-base, 1e-9)

	leading := scorer.Score(models.ColumnMetadata{Name: "account_number", DataType: "BLOB", OrdinalPosition: 1}, candidate, "")
	assert.InDelta(t, 0.02, leading-base, 1e-9)
}

func TestScore_ClampsToOne(t *testing.T) {
	scorer := NewScorer()
	candidate := accountNumberCandidate(t)

	score := scorer.Score(models.ColumnMetadata{
		Name:            "account_number",
		DataType:        "VARCHAR(34)",
		OrdinalPosition: 1,
		Classification:  "sensitive",
		Description:     "primary account identifier",
	}, candidate, "account onboarding batch")
	assert.LessOrEqual(t, score, 1.0)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestSelectBest_PrefersExactOverFuzzy(t *testing.T) {
	scorer := NewScorer()
	matcher := NewMatcher(BuiltinRegistry())
	column := models.ColumnMetadata{Name: "account_number", DataType: "VARCHAR(34)", OrdinalPosition: 3}

	suggestion, ok := scorer.SelectBest(column, matcher.Match(column.Name), "")
	require.True(t, ok)
	assert.Equal(t, "ACCOUNT_NUMBER", suggestion.Archetype)
	assert.Equal(t, models.MatchExact, suggestion.MatchType)
	assert.Equal(t, models.TransformMask, suggestion.Transformation)
	assert.Greater(t, suggestion.Confidence, 0.5)
}

func TestSelectBest_FuzzyScoresBelowExact(t *testing.T) {
	scorer := NewScorer()
	matcher := NewMatcher(BuiltinRegistry())

	exact, ok := scorer.SelectBest(models.ColumnMetadata{Name: "account_number", DataType: "VARCHAR(34)", OrdinalPosition: 1}, matcher.Match("account_number"), "")
	require.True(t, ok)

	fuzzy, ok := scorer.SelectBest(models.ColumnMetadata{Name: "acctnum", DataType: "VARCHAR(34)", OrdinalPosition: 1}, matcher.Match("acctnum"), "")
	require.True(t, ok)

	assert.Equal(t, models.MatchFuzzy, fuzzy.MatchType)
	assert.Less(t, fuzzy.Confidence, exact.Confidence)
}

func TestSelectBest_ExactBeatsHigherScoringFuzzy(t *testing.T) {
	scorer := NewScorer()
	registry := BuiltinRegistry()
	amount, _ := registry.Lookup("AMOUNT")
	acct, _ := registry.Lookup("ACCOUNT_NUMBER")

	candidates := []Candidate{
		{Archetype: acct, Confidence: 0.99, MatchType: models.MatchFuzzy},
		{Archetype: amount, Confidence: amount.BaseConfidence, MatchType: models.MatchExact},
	}

	suggestion, ok := scorer.SelectBest(models.ColumnMetadata{Name: "amount", DataType: "DECIMAL(18,2)", OrdinalPosition: 5}, candidates, "")
	require.True(t, ok)
	assert.Equal(t, "AMOUNT", suggestion.Archetype)
}

func TestSelectBest_DiscardsLowConfidence(t *testing.T) {
	scorer := NewScorerWithFloor(0.99)
	matcher := NewMatcher(BuiltinRegistry())
	column := models.ColumnMetadata{Name: "acctnum", DataType: "VARCHAR(34)", OrdinalPosition: 2}

	_, ok := scorer.SelectBest(column, matcher.Match(column.Name), "")
	assert.False(t, ok)
}

func TestSelectBest_NoCandidates(t *testing.T) {
	scorer := NewScorer()
	_, ok := scorer.SelectBest(models.ColumnMetadata{Name: "x"}, nil, "")
	assert.False(t, ok)
}

func TestRank_OrdersByConfidenceThenOrdinal(t *testing.T) {
	suggestions := []models.MappingSuggestion{
		{SourceColumn: "a", SourceOrdinal: 4, Confidence: 0.7},
		{SourceColumn: "b", SourceOrdinal: 2, Confidence: 0.9},
		{SourceColumn: "c", SourceOrdinal: 1, Confidence: 0.7},
	}

	Rank(suggestions)
	assert.Equal(t, []string{"b", "c", "a"}, []string{
		suggestions[0].SourceColumn, suggestions[1].SourceColumn, suggestions[2].SourceColumn,
	})
}

func TestRescore_NamingPenalty(t *testing.T) {
	scorer := NewScorer()

	out := scorer.Rescore([]models.MappingSuggestion{
		{TargetField: "Account_Number", Confidence: 0.9},
	})
	require.Len(t, out, 1)
	assert.InDelta(t, 0.72, out[0].Confidence, 1e-9)
}

func TestRescore_ComplianceAndConceptBonuses(t *testing.T) {
	scorer := NewScorer()

	out := scorer.Rescore([]models.MappingSuggestion{
		{
			TargetField:     "account-number",
			BusinessConcept: "account",
			ComplianceTags:  []string{"PII"},
			Confidence:      0.8,
		},
	})
	require.Len(t, out, 1)
	assert.InDelta(t, 0.88, out[0].Confidence, 1e-9)
}

func TestRescore_ClampsToOne(t *testing.T) {
	scorer := NewScorer()

	out := scorer.Rescore([]models.MappingSuggestion{
		{
			TargetField:     "account-number",
			BusinessConcept: "account",
			ComplianceTags:  []string{"PII"},
			Confidence:      0.99,
		},
	})
	assert.InDelta(t, 1.0, out[0].Confidence, 1e-9)
}

func TestRescore_DoesNotMutateInput(t *testing.T) {
	scorer := NewScorer()
	in := []models.MappingSuggestion{{TargetField: "BAD NAME", Confidence: 0.9}}

	_ = scorer.Rescore(in)
	assert.InDelta(t, 0.9, in[0].Confidence, 1e-9)
}

func TestValidTargetFieldName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"account-number", true},
		{"amount", true},
		{"risk-score-v2", true},
		{"ab", false},
		{"Account-Number", false},
		{"account_number", false},
		{"-account", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, validTargetFieldName(tt.name), "name %q", tt.name)
	}
}

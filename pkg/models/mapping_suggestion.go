package models

// Transformation is the handling recommended for a mapped column.
type Transformation string

const (
	TransformMask   Transformation = "mask"
	TransformDirect Transformation = "direct"
)

// MatchType records how a suggestion's archetype was found.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
)

// MappingSuggestion is a transient scoring result: one source column mapped to
// one canonical field archetype. Persisting an accepted suggestion is the
// caller's responsibility.
type MappingSuggestion struct {
	SourceColumn    string         `json:"source_column"`
	SourceOrdinal   int            `json:"source_ordinal"`
	TargetField     string         `json:"target_field"` // kebab-case rendering of the archetype
	Archetype       string         `json:"archetype"`
	Confidence      float64        `json:"confidence"` // [0,1]
	Transformation  Transformation `json:"transformation"`
	Classification  string         `json:"classification,omitempty"`
	ComplianceTags  []string       `json:"compliance_tags,omitempty"`
	BusinessConcept string         `json:"business_concept,omitempty"`
	MatchType       MatchType      `json:"match_type"`
}

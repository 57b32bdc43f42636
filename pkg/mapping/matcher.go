package mapping

import (
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/clearledger/governance-engine/pkg/models"
)

// Default fuzzy-matching policy. Fuzzy hits below the threshold are dropped;
// surviving hits are discounted so a fuzzy match never outranks an exact one
// at equal distance.
const (
	DefaultFuzzyThreshold = 0.6
	DefaultFuzzyDiscount  = 0.7
)

// Candidate pairs an archetype with the confidence the matcher assigned it,
// before scoring adjustments.
type Candidate struct {
	Archetype  *FieldArchetype
	Confidence float64
	MatchType  models.MatchType
}

// Matcher evaluates column names against the archetype registry.
type Matcher struct {
	registry       *Registry
	fuzzyThreshold float64
	fuzzyDiscount  float64
}

// NewMatcher builds a matcher over the given registry with default fuzzy
// policy.
func NewMatcher(registry *Registry) *Matcher {
	return &Matcher{
		registry:       registry,
		fuzzyThreshold: DefaultFuzzyThreshold,
		fuzzyDiscount:  DefaultFuzzyDiscount,
	}
}

// NewMatcherWithPolicy builds a matcher with explicit fuzzy threshold and
// discount, both from configuration.
func NewMatcherWithPolicy(registry *Registry, threshold, discount float64) *Matcher {
	return &Matcher{registry: registry, fuzzyThreshold: threshold, fuzzyDiscount: discount}
}

// Match returns every candidate archetype for a column name. The exact pass
// evaluates each archetype's pattern against the raw name; only when no
// pattern matches does the fuzzy pass run, comparing the normalized name
// against each archetype's normalized canonical name and aliases.
func (m *Matcher) Match(columnName string) []Candidate {
	var candidates []Candidate

	for i := range m.registry.archetypes {
		a := &m.registry.archetypes[i]
		if a.Pattern.MatchString(columnName) {
			candidates = append(candidates, Candidate{
				Archetype:  a,
				Confidence: a.BaseConfidence,
				MatchType:  models.MatchExact,
			})
		}
	}
	if len(candidates) > 0 {
		return candidates
	}

	normalized := NormalizeColumnName(columnName)
	for i := range m.registry.archetypes {
		a := &m.registry.archetypes[i]
		score := m.bestFuzzyScore(normalized, a)
		if score > m.fuzzyThreshold {
			candidates = append(candidates, Candidate{
				Archetype:  a,
				Confidence: score * m.fuzzyDiscount,
				MatchType:  models.MatchFuzzy,
			})
		}
	}

	return candidates
}

// bestFuzzyScore returns the highest normalized similarity between the
// normalized column name and the archetype's keys (canonical name plus
// aliases, each normalized).
func (m *Matcher) bestFuzzyScore(normalized string, a *FieldArchetype) float64 {
	best := fuzzyScore(normalized, NormalizeColumnName(a.CanonicalName))
	for _, alias := range a.Aliases {
		if s := fuzzyScore(normalized, NormalizeColumnName(alias)); s > best {
			best = s
		}
	}
	return best
}

// NormalizeColumnName lowercases, strips underscores and hyphens, and
// singularizes the name so that plural source columns compare cleanly
// against singular archetype keys.
func NormalizeColumnName(name string) string {
	n := strings.ToLower(name)
	n = strings.ReplaceAll(n, "_", "")
	n = strings.ReplaceAll(n, "-", "")
	return inflection.Singular(n)
}

// fuzzyScore is 1 - levenshtein(a,b)/max(len(a),len(b)); 1.0 for identical
// strings, approaching 0 as the names diverge.
func fuzzyScore(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes edit distance with a two-row dynamic program. O(n*m)
// is acceptable for short identifier strings.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

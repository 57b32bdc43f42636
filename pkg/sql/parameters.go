package sql

import (
	"strings"
	"unicode"
)

// ExtractParameters finds every :name placeholder in SQL and returns a
// deduplicated list in order of first appearance. Extraction is lexical:
// tokens are split on whitespace, a token beginning with ':' is a
// placeholder, and trailing non-identifier characters (commas, parens,
// comparison tails) are stripped to recover the bare name.
//
// Example:
//
//	ExtractParameters("SELECT * FROM accounts WHERE id = :accountId AND dt >= :from")
//	// []string{"accountId", "from"}
func ExtractParameters(sqlText string) []string {
	seen := make(map[string]bool)
	var params []string

	for _, token := range strings.Fields(sqlText) {
		if !strings.HasPrefix(token, ":") {
			continue
		}
		name := trimNonIdentifier(token[1:])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		params = append(params, name)
	}

	return params
}

// trimNonIdentifier strips trailing characters that are not part of an
// identifier (letters, digits, underscore).
func trimNonIdentifier(s string) string {
	end := len(s)
	for end > 0 {
		r := rune(s[end-1])
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			break
		}
		end--
	}
	return s[:end]
}

// ParameterAnalysis reports how the placeholders used in SQL relate to the
// declared parameter set.
type ParameterAnalysis struct {
	Consistent bool
	Extracted  []string
	// Undeclared are placeholders used in SQL with no matching declaration.
	Undeclared []string
	// Unused are declared parameters that never appear in the SQL.
	Unused []string
}

// AnalyzeParameters checks that the extracted placeholder set equals the
// declared set exactly. Both directions are violations: a placeholder with no
// declaration and a declaration with no placeholder.
func AnalyzeParameters(sqlText string, declared []string) ParameterAnalysis {
	extracted := ExtractParameters(sqlText)

	extractedSet := make(map[string]bool, len(extracted))
	for _, name := range extracted {
		extractedSet[name] = true
	}
	declaredSet := make(map[string]bool, len(declared))
	for _, name := range declared {
		declaredSet[name] = true
	}

	analysis := ParameterAnalysis{Extracted: extracted}
	for _, name := range extracted {
		if !declaredSet[name] {
			analysis.Undeclared = append(analysis.Undeclared, name)
		}
	}
	for _, name := range declared {
		if !extractedSet[name] {
			analysis.Unused = append(analysis.Unused, name)
		}
	}
	analysis.Consistent = len(analysis.Undeclared) == 0 && len(analysis.Unused) == 0

	return analysis
}

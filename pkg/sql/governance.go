// Package sql implements the governance rules applied to stored query text:
// read-only enforcement, forbidden-keyword scanning, parameter extraction and
// consistency checks, and a structural complexity heuristic.
package sql

import (
	"fmt"
	"strings"

	"github.com/clearledger/governance-engine/pkg/apperrors"
)

// Violation codes produced by Validate.
const (
	CodeEmptySQL            = "EMPTY_SQL"
	CodeLengthOutOfRange    = "SQL_LENGTH_OUT_OF_RANGE"
	CodeNotReadOnly         = "NOT_READ_ONLY"
	CodeForbiddenKeyword    = "FORBIDDEN_KEYWORD"
	CodeSuspiciousParameter = "SUSPICIOUS_PARAMETER_DEFAULT"
)

// Accepted SQL length window, in bytes of raw statement text.
const (
	MinSQLLength = 10
	MaxSQLLength = 10000
)

// forbiddenKeywords is scanned as case-insensitive substrings. The scan is
// intentionally naive: an identifier that embeds a keyword (an alias like
// LAST_UPDATED contains UPDATE) is flagged too. That false positive is a
// documented governance tradeoff; do not replace this with a tokenizer
// without changing the accepted/rejected query sets.
var forbiddenKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "TRUNCATE",
	"ALTER", "CREATE", "EXEC", "EXECUTE", "MERGE",
}

// ValidationOutcome is the structured result of a governance scan. Rule hits
// are reported as violations, never as an error; the caller decides whether
// the operation proceeds.
type ValidationOutcome struct {
	Valid      bool
	Violations []apperrors.Violation
}

// Validate applies the governance rules to raw SQL text, in order: blank
// check, length window, read-only verb requirement, forbidden-keyword scan.
// Case is normalized for scanning only; the stored text is untouched.
func Validate(sqlText string) ValidationOutcome {
	if strings.TrimSpace(sqlText) == "" {
		return outcome(apperrors.Violation{
			Code:    CodeEmptySQL,
			Message: "SQL text must not be empty",
		})
	}

	if len(sqlText) < MinSQLLength || len(sqlText) > MaxSQLLength {
		return outcome(apperrors.Violation{
			Code:    CodeLengthOutOfRange,
			Message: fmt.Sprintf("SQL length %d outside allowed range [%d, %d]", len(sqlText), MinSQLLength, MaxSQLLength),
		})
	}

	var violations []apperrors.Violation

	upper := strings.ToUpper(strings.TrimSpace(sqlText))
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		violations = append(violations, apperrors.Violation{
			Code:    CodeNotReadOnly,
			Message: "statement must begin with SELECT or WITH",
		})
	}

	for _, kw := range forbiddenKeywords {
		if strings.Contains(upper, kw) {
			violations = append(violations, apperrors.Violation{
				Code:    CodeForbiddenKeyword,
				Message: fmt.Sprintf("forbidden keyword %s present in statement", kw),
			})
		}
	}

	return ValidationOutcome{Valid: len(violations) == 0, Violations: violations}
}

func outcome(v apperrors.Violation) ValidationOutcome {
	return ValidationOutcome{Valid: false, Violations: []apperrors.Violation{v}}
}

package sql

import (
	"regexp"
	"strings"
)

// ComplexityThresholds bounds the structural complexity accepted for a stored
// query. The exact values are policy, loaded from configuration; these
// defaults match current governance guidance.
type ComplexityThresholds struct {
	MaxStatementLength int `yaml:"max_statement_length" env:"GOV_MAX_STATEMENT_LENGTH" env-default:"10000"`
	MaxJoins           int `yaml:"max_joins" env:"GOV_MAX_JOINS" env-default:"5"`
	MaxNestingDepth    int `yaml:"max_nesting_depth" env:"GOV_MAX_NESTING_DEPTH" env-default:"3"`
}

// DefaultComplexityThresholds returns the policy defaults.
func DefaultComplexityThresholds() ComplexityThresholds {
	return ComplexityThresholds{MaxStatementLength: 10000, MaxJoins: 5, MaxNestingDepth: 3}
}

// ComplexityMetrics are the raw measurements the heuristic is computed from.
type ComplexityMetrics struct {
	StatementLength int
	JoinCount       int
	NestingDepth    int
}

var joinPattern = regexp.MustCompile(`(?i)\bJOIN\b`)

// MeasureComplexity computes length, join count, and parenthesis nesting
// depth for a statement. String literals are not excluded; the heuristic is
// deliberately cheap.
func MeasureComplexity(sqlText string) ComplexityMetrics {
	depth, maxDepth := 0, 0
	for _, r := range sqlText {
		switch r {
		case '(':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')':
			if depth > 0 {
				depth--
			}
		}
	}

	return ComplexityMetrics{
		StatementLength: len(sqlText),
		JoinCount:       len(joinPattern.FindAllString(sqlText, -1)),
		NestingDepth:    maxDepth,
	}
}

// AnalysisResult combines parameter consistency with the complexity verdict
// for one statement.
type AnalysisResult struct {
	Parameters           ParameterAnalysis
	Metrics              ComplexityMetrics
	AcceptableComplexity bool
}

// Analyze runs parameter analysis and the complexity heuristic against the
// configured thresholds.
func Analyze(sqlText string, declared []string, thresholds ComplexityThresholds) AnalysisResult {
	metrics := MeasureComplexity(sqlText)

	return AnalysisResult{
		Parameters: AnalyzeParameters(sqlText, declared),
		Metrics:    metrics,
		AcceptableComplexity: metrics.StatementLength <= thresholds.MaxStatementLength &&
			metrics.JoinCount <= thresholds.MaxJoins &&
			metrics.NestingDepth <= thresholds.MaxNestingDepth,
	}
}

// NormalizeForScan uppercases and collapses whitespace for keyword scanning.
// Stored query text is never modified; this exists for scan-only views.
func NormalizeForScan(sqlText string) string {
	return strings.Join(strings.Fields(strings.ToUpper(sqlText)), " ")
}

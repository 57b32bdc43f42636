package services

import (
	"fmt"

	"github.com/clearledger/governance-engine/pkg/apperrors"
	"github.com/clearledger/governance-engine/pkg/models"
	sqlgov "github.com/clearledger/governance-engine/pkg/sql"
)

// Violation codes raised by request validation, on top of the governance
// codes from pkg/sql.
const (
	CodeMissingField            = "MISSING_REQUIRED_FIELD"
	CodeInvalidQueryType        = "INVALID_QUERY_TYPE"
	CodeExecutionTimeOutOfRange = "MAX_EXECUTION_TIME_OUT_OF_RANGE"
	CodeResultRowsOutOfRange    = "MAX_RESULT_ROWS_OUT_OF_RANGE"
	CodeParameterMismatch       = "PARAMETER_MISMATCH"
	CodeExcessiveComplexity     = "EXCESSIVE_COMPLEXITY"
	CodeDuplicateName           = "DUPLICATE_NAME"
	CodeJustificationTooShort   = "JUSTIFICATION_TOO_SHORT"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
)

// MinJustificationLength is the audit-compliance minimum for delete
// justifications.
const MinJustificationLength = 20

// checkRequiredFields validates the identity fields of a create request.
func checkRequiredFields(req CreateQueryRequest) []apperrors.Violation {
	var violations []apperrors.Violation
	if req.SourceSystem == "" {
		violations = append(violations, apperrors.Violation{Code: CodeMissingField, Message: "source system is required"})
	}
	if req.Name == "" {
		violations = append(violations, apperrors.Violation{Code: CodeMissingField, Message: "name is required"})
	}
	if req.RequestedBy == "" {
		violations = append(violations, apperrors.Violation{Code: CodeMissingField, Message: "requesting principal is required"})
	}
	return violations
}

// checkQueryType validates the declared query type.
func checkQueryType(queryType models.QueryType) []apperrors.Violation {
	switch queryType {
	case models.QueryTypeReadOnlySelect, models.QueryTypeReadOnlyWith:
		return nil
	default:
		return []apperrors.Violation{{
			Code:    CodeInvalidQueryType,
			Message: fmt.Sprintf("unknown query type %q", queryType),
		}}
	}
}

// checkExecutionCaps validates the declared execution-time and row caps
// against policy bounds. Runtime enforcement belongs to the execution engine;
// only the declared values are policed here.
func checkExecutionCaps(maxExecutionTimeSeconds, maxResultRows int) []apperrors.Violation {
	var violations []apperrors.Violation
	if maxExecutionTimeSeconds < models.MinExecutionTimeSeconds || maxExecutionTimeSeconds > models.MaxExecutionTimeSeconds {
		violations = append(violations, apperrors.Violation{
			Code: CodeExecutionTimeOutOfRange,
			Message: fmt.Sprintf("max execution time %ds outside allowed range [%d, %d]",
				maxExecutionTimeSeconds, models.MinExecutionTimeSeconds, models.MaxExecutionTimeSeconds),
		})
	}
	if maxResultRows < models.MinResultRows || maxResultRows > models.MaxResultRows {
		violations = append(violations, apperrors.Violation{
			Code: CodeResultRowsOutOfRange,
			Message: fmt.Sprintf("max result rows %d outside allowed range [%d, %d]",
				maxResultRows, models.MinResultRows, models.MaxResultRows),
		})
	}
	return violations
}

// checkSQL runs the full governance pipeline over the statement: safety
// rules, parameter-default injection scan, placeholder consistency, and the
// complexity heuristic.
func checkSQL(sqlText string, params []models.QueryParameter, thresholds sqlgov.ComplexityThresholds) []apperrors.Violation {
	violations := sqlgov.Validate(sqlText).Violations
	violations = append(violations, sqlgov.CheckParameterDefaults(params)...)

	declared := make([]string, len(params))
	for i, p := range params {
		declared[i] = p.Name
	}

	analysis := sqlgov.Analyze(sqlText, declared, thresholds)
	if !analysis.Parameters.Consistent {
		for _, name := range analysis.Parameters.Undeclared {
			violations = append(violations, apperrors.Violation{
				Code:    CodeParameterMismatch,
				Message: fmt.Sprintf("placeholder :%s used in SQL but not declared", name),
			})
		}
		for _, name := range analysis.Parameters.Unused {
			violations = append(violations, apperrors.Violation{
				Code:    CodeParameterMismatch,
				Message: fmt.Sprintf("parameter %q declared but not used in SQL", name),
			})
		}
	}
	if !analysis.AcceptableComplexity {
		violations = append(violations, apperrors.Violation{
			Code: CodeExcessiveComplexity,
			Message: fmt.Sprintf("statement complexity exceeds policy (length=%d joins=%d depth=%d)",
				analysis.Metrics.StatementLength, analysis.Metrics.JoinCount, analysis.Metrics.NestingDepth),
		})
	}

	return violations
}

// checkJustification enforces the audit-compliance minimum on delete
// justifications.
func checkJustification(justification string) []apperrors.Violation {
	if len(justification) >= MinJustificationLength {
		return nil
	}
	return []apperrors.Violation{{
		Code:    CodeJustificationTooShort,
		Message: fmt.Sprintf("justification must be at least %d characters", MinJustificationLength),
	}}
}

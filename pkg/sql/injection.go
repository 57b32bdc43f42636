package sql

import (
	"fmt"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/clearledger/governance-engine/pkg/apperrors"
	"github.com/clearledger/governance-engine/pkg/models"
)

// InjectionFinding reports a parameter default that matched a SQL injection
// fingerprint.
type InjectionFinding struct {
	ParamName   string
	Fingerprint string
}

// CheckDefaultForInjection runs libinjection against one declared parameter
// default. Only string defaults are checked; numbers and booleans cannot
// carry injection payloads.
func CheckDefaultForInjection(paramName string, value any) *InjectionFinding {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if !isSQLi {
		return nil
	}

	return &InjectionFinding{ParamName: paramName, Fingerprint: string(fingerprint)}
}

// CheckParameterDefaults scans every declared parameter default and returns
// one SUSPICIOUS_PARAMETER_DEFAULT violation per finding. A stored default
// that looks like an injection payload would otherwise ride along into every
// execution of the definition.
func CheckParameterDefaults(params []models.QueryParameter) []apperrors.Violation {
	var violations []apperrors.Violation
	for _, p := range params {
		if p.Default == nil {
			continue
		}
		if finding := CheckDefaultForInjection(p.Name, p.Default); finding != nil {
			violations = append(violations, apperrors.Violation{
				Code:    CodeSuspiciousParameter,
				Message: fmt.Sprintf("default value for parameter %q matches injection fingerprint %s", finding.ParamName, finding.Fingerprint),
			})
		}
	}
	return violations
}

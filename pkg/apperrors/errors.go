// Package apperrors defines the error taxonomy shared across the governance
// engine: sentinel errors for the lifecycle outcomes callers branch on, plus a
// structured ValidationError that carries itemized rule violations.
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrInUse           = errors.New("query definition in use")
	ErrDeprecated      = errors.New("query definition is deprecated")
)

// Violation is a single governance or validation rule failure.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError aggregates every violation found during request validation.
// It is returned before anything is persisted and is never retried.
type ValidationError struct {
	CorrelationID uuid.UUID
	Violations    []Violation
}

func (e *ValidationError) Error() string {
	codes := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		codes[i] = v.Code
	}
	return fmt.Sprintf("validation failed [%s]: %s", e.CorrelationID, strings.Join(codes, ", "))
}

// HasCode reports whether any violation carries the given code.
func (e *ValidationError) HasCode(code string) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// NewValidationError builds a ValidationError tagged with the operation's
// correlation ID.
func NewValidationError(correlationID uuid.UUID, violations ...Violation) *ValidationError {
	return &ValidationError{CorrelationID: correlationID, Violations: violations}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

package taskgraph

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a well-known failure kind raised by the taskgraph,
// pipeline, queue, and exec packages. These codes mirror the taxonomy in
// SPEC_FULL.md §7: MissingTypeHint, Compatibility, Dependency,
// CircularDependency, NotFound, and ActivityFailed.
type ErrorCode string

const (
	ErrCodeMissingType    ErrorCode = "MISSING_TYPE_HINT"
	ErrCodeCompatibility  ErrorCode = "COMPATIBILITY"
	ErrCodeDependency     ErrorCode = "DEPENDENCY"
	ErrCodeCircular       ErrorCode = "CIRCULAR_DEPENDENCY"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeActivityFailed ErrorCode = "ACTIVITY_FAILED"
	ErrCodeValidation     ErrorCode = "VALIDATION_ERROR"
)

// DomainError is a typed error enriched with contextual data, shared by
// every package in the engine's core.
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is allows errors.Is comparisons against other DomainError values.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return e.Code == de.Code
}

// WithContext clones the error with additional contextual metadata merged in.
func (e *DomainError) WithContext(ctx map[string]interface{}) *DomainError {
	if e == nil {
		return nil
	}
	merged := make(map[string]interface{}, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		merged[k] = v
	}
	for k, v := range ctx {
		merged[k] = v
	}
	return &DomainError{Code: e.Code, Message: e.Message, Cause: e.Cause, Context: merged}
}

func newDomainError(code ErrorCode, message string, cause error, context map[string]interface{}) *DomainError {
	return &DomainError{Code: code, Message: message, Cause: cause, Context: context}
}

// NewMissingTypeHintError reports a task callable with no declared return type.
func NewMissingTypeHintError(funcName string) *DomainError {
	return newDomainError(ErrCodeMissingType, fmt.Sprintf("no type hint was provided for %s's return", funcName), nil, map[string]interface{}{
		"func": funcName,
	})
}

// NewCompatibilityError reports an upstream/downstream type mismatch.
func NewCompatibilityError(message string, context map[string]interface{}) *DomainError {
	return newDomainError(ErrCodeCompatibility, message, nil, context)
}

// NewDependencyError reports an unresolved or self-referential dependency.
func NewDependencyError(message string, context map[string]interface{}) *DomainError {
	return newDomainError(ErrCodeDependency, message, nil, context)
}

// NewCircularDependencyError reports a cycle detected in the composed graph.
func NewCircularDependencyError(path []string) *DomainError {
	return newDomainError(ErrCodeCircular, "circular dependency detected", nil, map[string]interface{}{
		"path": path,
	})
}

// NewNotFoundError reports a failed name lookup, e.g. GetActivityByName.
func NewNotFoundError(name string) *DomainError {
	return newDomainError(ErrCodeNotFound, "activity not found", nil, map[string]interface{}{
		"name": name,
	})
}

// NewActivityFailedError reports a callable that raised during execution.
// It carries the activity name, id, and underlying cause.
func NewActivityFailedError(name, id string, cause error) *DomainError {
	return newDomainError(ErrCodeActivityFailed, "activity failed", cause, map[string]interface{}{
		"activity_name": name,
		"activity_id":   id,
	})
}

// NewValidationError reports a malformed service configuration or
// registration payload.
func NewValidationError(message string, context map[string]interface{}) *DomainError {
	return newDomainError(ErrCodeValidation, message, nil, context)
}

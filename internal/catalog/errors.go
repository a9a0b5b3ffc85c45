package catalog

import (
	"errors"
	"fmt"
)

// ErrorCode identifies well-known domain error categories used across the
// enrichment pipeline. Transient repository conditions and configuration
// problems share this taxonomy so run reports can classify failures uniformly.
type ErrorCode string

const (
	ErrCodeMalformedTagSet  ErrorCode = "MALFORMED_TAG_SET"
	ErrCodeInvalidRule      ErrorCode = "INVALID_RULE"
	ErrCodeUnmappedCategory ErrorCode = "UNMAPPED_CATEGORY"
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"
	ErrCodeTransient        ErrorCode = "TRANSIENT_ERROR"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// DomainError represents a typed error enriched with contextual data while
// remaining free from infrastructure dependencies.
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

// Unwrap exposes the wrapped cause for errors.Is / errors.As usage.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is allows errors.Is comparisons against other DomainError values.
func (e *DomainError) Is(target error) bool {
	var domainErr *DomainError
	if !errors.As(target, &domainErr) {
		return false
	}
	return e.Code == domainErr.Code && e.Message == domainErr.Message
}

// CodeOf extracts the domain error code from err, returning ErrCodeInternal
// for errors outside the taxonomy.
func CodeOf(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ErrCodeInternal
}

func newDomainError(code ErrorCode, message string, cause error, context map[string]interface{}) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// NewMalformedTagSetError reports a duplicated reserved namespace in a tag set.
func NewMalformedTagSetError(namespace string) *DomainError {
	return newDomainError(ErrCodeMalformedTagSet, fmt.Sprintf("reserved namespace %q appears more than once", namespace), nil, map[string]interface{}{
		"namespace": namespace,
	})
}

// NewEmptyReservedTagError reports a reserved-namespace tag with no value.
func NewEmptyReservedTagError(namespace string) *DomainError {
	return newDomainError(ErrCodeMalformedTagSet, fmt.Sprintf("reserved namespace %q carries an empty value", namespace), nil, map[string]interface{}{
		"namespace": namespace,
	})
}

// NewInvalidRuleError reports an unusable pricing rule.
func NewInvalidRuleError(category, reason string) *DomainError {
	return newDomainError(ErrCodeInvalidRule, reason, nil, map[string]interface{}{
		"category": category,
	})
}

// NewUnmappedCategoryError reports a category with no collection mapping.
func NewUnmappedCategoryError(category string) *DomainError {
	return newDomainError(ErrCodeUnmappedCategory, fmt.Sprintf("category %q has no collection mapping", category), nil, map[string]interface{}{
		"category": category,
	})
}

// NewValidationError reports invalid input to a pure computation.
func NewValidationError(message string, context map[string]interface{}) *DomainError {
	return newDomainError(ErrCodeValidation, message, nil, context)
}

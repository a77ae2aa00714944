// Package apperrors defines application-level error types.
package apperrors

import (
	"fmt"
	"strings"

	"github.com/reglet-dev/composer/internal/domain/capabilities"
)

// ValidationError indicates a profile or type descriptor is malformed.
type ValidationError struct {
	Field   string   // Field that failed validation
	Message string   // Error message
	Details []string // Additional details
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s (%d issues)", e.Field, e.Message, len(e.Details))
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, details ...string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: details,
	}
}

// SecurityError indicates a component lacks capabilities required to be
// commissioned.
type SecurityError struct {
	Model   string
	Reason  string
	Missing []capabilities.Capability
}

func (e *SecurityError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, c := range e.Missing {
		names = append(names, c.String())
	}
	if len(names) == 0 {
		return fmt.Sprintf("security error for %s: %s", e.Model, e.Reason)
	}
	return fmt.Sprintf("security error for %s: %s: %s", e.Model, e.Reason, strings.Join(names, ", "))
}

// NewSecurityError creates a new security error.
func NewSecurityError(model, reason string, missing []capabilities.Capability) *SecurityError {
	return &SecurityError{
		Model:   model,
		Reason:  reason,
		Missing: missing,
	}
}

// CommissionError indicates a component could not be brought up or down.
type CommissionError struct {
	Cause   error
	Model   string
	Message string
}

func (e *CommissionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("commission failed for %s: %s: %v", e.Model, e.Message, e.Cause)
	}
	return fmt.Sprintf("commission failed for %s: %s", e.Model, e.Message)
}

func (e *CommissionError) Unwrap() error {
	return e.Cause
}

// NewCommissionError creates a new commission error.
func NewCommissionError(model, message string, cause error) *CommissionError {
	return &CommissionError{
		Model:   model,
		Message: message,
		Cause:   cause,
	}
}

// ConfigurationError indicates system config or setup issue.
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Aspect, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Aspect, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Aspect:  aspect,
		Message: message,
		Cause:   cause,
	}
}

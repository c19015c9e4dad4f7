// Package apperrors defines application-level error types.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/rv-tools/multibuild/internal/domain/values"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("a build run is already in progress")

// ErrRunNotFound is returned by run repositories for unknown IDs.
var ErrRunNotFound = errors.New("run not found")

// ValidationError indicates selection or flag validation failed.
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

// BuildFailure indicates the backend did not produce a build for a target.
// It ends the run; remaining targets are not attempted.
type BuildFailure struct {
	Cause       error
	Target      values.Target
	Diagnostics string
	Index       int
}

func (e *BuildFailure) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("build failed for target %s (#%d): %v", e.Target, e.Index+1, e.Cause)
	}
	if e.Diagnostics != "" {
		return fmt.Sprintf("build failed for target %s (#%d): %s", e.Target, e.Index+1, e.Diagnostics)
	}
	return fmt.Sprintf("build failed for target %s (#%d)", e.Target, e.Index+1)
}

func (e *BuildFailure) Unwrap() error {
	return e.Cause
}

// NewBuildFailure creates a new build failure.
func NewBuildFailure(target values.Target, index int, diagnostics string, cause error) *BuildFailure {
	return &BuildFailure{
		Target:      target,
		Index:       index,
		Diagnostics: diagnostics,
		Cause:       cause,
	}
}

// ConfigurationError indicates project config or setup issue.
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

// NoInputModules is the configuration error raised when no enabled module is configured.
func NoInputModules() *ConfigurationError {
	return NewConfigurationError("modules", "no valid input modules configured", nil)
}

package model

import (
	"errors"
	"fmt"
)

// ErrModelRuntime marks invariant violations such as asking an unassembled
// model for its providers.
var ErrModelRuntime = errors.New("model runtime error")

// ModelError indicates a model could not be constructed from its profile.
type ModelError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ModelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model error in %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("model error in %s: %s", e.Path, e.Message)
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}

// NewModelError creates a new model error.
func NewModelError(path, message string, cause error) *ModelError {
	return &ModelError{Path: path, Message: message, Cause: cause}
}

// AssemblyError indicates a requirement of a model could not be bound to a provider.
type AssemblyError struct {
	Model   string // qualified name of the model being assembled
	Key     string // requirement key, empty when not specific to one requirement
	Message string
	Cause   error
}

func (e *AssemblyError) Error() string {
	msg := fmt.Sprintf("unable to assemble %s", e.Model)
	if e.Key != "" {
		msg += fmt.Sprintf(" [%s]", e.Key)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AssemblyError) Unwrap() error {
	return e.Cause
}

// NewAssemblyError creates a new assembly error.
func NewAssemblyError(model, key, message string, cause error) *AssemblyError {
	return &AssemblyError{Model: model, Key: key, Message: message, Cause: cause}
}

// IsModelError reports whether err wraps a ModelError.
func IsModelError(err error) bool {
	var target *ModelError
	return errors.As(err, &target)
}

// IsAssemblyError reports whether err wraps an AssemblyError.
func IsAssemblyError(err error) bool {
	var target *AssemblyError
	return errors.As(err, &target)
}

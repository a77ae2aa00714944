package catalog

import (
	"errors"
	"fmt"
)

// ErrIllegalState marks catalog lookups that were expected to succeed.
var ErrIllegalState = errors.New("illegal catalog state")

// TypeUnknownError indicates no type is registered for a classname.
// Callers treat it as a signal to fall back, not as a fatal error.
type TypeUnknownError struct {
	Classname string
}

func (e *TypeUnknownError) Error() string {
	return fmt.Sprintf("unknown type: %s", e.Classname)
}

// ProfileUnknownError indicates a type has no packaged profile under a key.
type ProfileUnknownError struct {
	Type string
	Key  string
}

func (e *ProfileUnknownError) Error() string {
	return fmt.Sprintf("unknown profile %q for type %s", e.Key, e.Type)
}

// ServiceUnknownError indicates no service definition matches a reference.
type ServiceUnknownError struct {
	Reference string
}

func (e *ServiceUnknownError) Error() string {
	return fmt.Sprintf("unknown service: %s", e.Reference)
}

// IsTypeUnknown reports whether err is a TypeUnknownError.
func IsTypeUnknown(err error) bool {
	var target *TypeUnknownError
	return errors.As(err, &target)
}

// IsProfileUnknown reports whether err is a ProfileUnknownError.
func IsProfileUnknown(err error) bool {
	var target *ProfileUnknownError
	return errors.As(err, &target)
}

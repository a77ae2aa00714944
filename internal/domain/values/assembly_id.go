package values

import (
	"fmt"

	"github.com/google/uuid"
)

// AssemblyID uniquely identifies one assembly run.
type AssemblyID struct {
	value uuid.UUID
}

// NewAssemblyID creates a new random assembly ID
func NewAssemblyID() AssemblyID {
	return AssemblyID{value: uuid.New()}
}

// ParseAssemblyID parses a string into an AssemblyID
func ParseAssemblyID(s string) (AssemblyID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AssemblyID{}, fmt.Errorf("invalid assembly ID: %w", err)
	}
	return AssemblyID{value: id}, nil
}

// String returns the string representation
func (a AssemblyID) String() string {
	return a.value.String()
}

// IsZero returns true if this is the zero value
func (a AssemblyID) IsZero() bool {
	return a.value == uuid.Nil
}

// MarshalText implements encoding.TextMarshaler
func (a AssemblyID) MarshalText() ([]byte, error) {
	return []byte(a.value.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *AssemblyID) UnmarshalText(data []byte) error {
	id, err := ParseAssemblyID(string(data))
	if err != nil {
		return err
	}
	*a = id
	return nil
}

// Package values contains domain value objects that encapsulate
// primitive types with validation and such.
package values

import (
	"fmt"
	"strings"
)

// Mode records how a profile or model came into existence.
// Modes are ranked: explicit beats packaged, packaged beats implicit.
type Mode int

const (
	// ModeImplicit marks a profile synthesized for a type without packaged profiles.
	ModeImplicit Mode = iota + 1
	// ModePackaged marks a profile shipped alongside a component type.
	ModePackaged
	// ModeExplicit marks a profile declared by the author of a containment profile.
	ModeExplicit
)

// ParseMode creates a Mode from its string form.
// An empty string yields ModeExplicit, the mode of authored profiles.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "explicit", "":
		return ModeExplicit, nil
	case "packaged":
		return ModePackaged, nil
	case "implicit":
		return ModeImplicit, nil
	default:
		return 0, fmt.Errorf("invalid mode: %s", s)
	}
}

// String returns the string representation
func (m Mode) String() string {
	switch m {
	case ModeExplicit:
		return "explicit"
	case ModePackaged:
		return "packaged"
	case ModeImplicit:
		return "implicit"
	default:
		return "unknown"
	}
}

// IsValid reports whether m is one of the declared modes.
func (m Mode) IsValid() bool {
	return m >= ModeImplicit && m <= ModeExplicit
}

// RankedModes lists the modes in selection order.
func RankedModes() []Mode {
	return []Mode{ModeExplicit, ModePackaged, ModeImplicit}
}

// MarshalText implements encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Mode) UnmarshalText(data []byte) error {
	parsed, err := ParseMode(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

package values

import (
	"fmt"
	"strings"
)

// CollectionPolicy controls how eagerly a runtime may discard idle instances.
// Policies are ordered: liberal < demand < conservative.
type CollectionPolicy int

const (
	CollectionUndefined CollectionPolicy = iota
	CollectionLiberal
	CollectionDemand
	CollectionConservative
)

// ParseCollectionPolicy creates a CollectionPolicy from string
func ParseCollectionPolicy(s string) (CollectionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return CollectionUndefined, nil
	case "liberal":
		return CollectionLiberal, nil
	case "demand":
		return CollectionDemand, nil
	case "conservative":
		return CollectionConservative, nil
	default:
		return CollectionUndefined, fmt.Errorf("invalid collection policy: %s", s)
	}
}

// String returns the string representation
func (c CollectionPolicy) String() string {
	switch c {
	case CollectionLiberal:
		return "liberal"
	case CollectionDemand:
		return "demand"
	case CollectionConservative:
		return "conservative"
	default:
		return ""
	}
}

// IsLowerThan reports whether c allows more aggressive collection than other.
func (c CollectionPolicy) IsLowerThan(other CollectionPolicy) bool {
	return c < other
}

// ActivationPolicy decides whether a component is commissioned at startup or on first use.
type ActivationPolicy int

const (
	ActivationUndefined ActivationPolicy = iota
	ActivationStartup
	ActivationLazy
)

// ParseActivationPolicy creates an ActivationPolicy from string
func ParseActivationPolicy(s string) (ActivationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ActivationUndefined, nil
	case "startup", "true":
		return ActivationStartup, nil
	case "lazy", "false":
		return ActivationLazy, nil
	default:
		return ActivationUndefined, fmt.Errorf("invalid activation policy: %s", s)
	}
}

// String returns the string representation
func (a ActivationPolicy) String() string {
	switch a {
	case ActivationStartup:
		return "startup"
	case ActivationLazy:
		return "lazy"
	default:
		return ""
	}
}

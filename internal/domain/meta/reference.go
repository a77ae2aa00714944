// Package meta holds the immutable descriptors of component types:
// what a component implementation offers and what it needs.
package meta

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// unversioned is assumed for services that do not declare a version.
const unversioned = "0.0.0"

// ReferenceDescriptor names a service contract and an optional version.
// On a dependency the version is a constraint ("^1.2", ">=1.0 <2.0");
// on a service it is a concrete version.
type ReferenceDescriptor struct {
	Classname string
	Version   string
}

// NewReference validates and creates a reference to a service contract.
// A non-empty version must parse either as a version or as a constraint.
func NewReference(classname, version string) (ReferenceDescriptor, error) {
	if classname == "" {
		return ReferenceDescriptor{}, fmt.Errorf("reference classname is required")
	}
	if version != "" {
		if _, err := semver.NewConstraint(version); err != nil {
			return ReferenceDescriptor{}, fmt.Errorf("reference %s: invalid version %q: %w", classname, version, err)
		}
	}
	return ReferenceDescriptor{Classname: classname, Version: version}, nil
}

// Satisfies reports whether a service reference satisfies r when r is used
// as a requirement. Classnames must be equal and the service version must fall
// within r's version constraint, if any.
func (r ReferenceDescriptor) Satisfies(service ReferenceDescriptor) bool {
	if r.Classname != service.Classname {
		return false
	}
	if r.Version == "" {
		return true
	}
	constraint, err := semver.NewConstraint(r.Version)
	if err != nil {
		return false
	}
	raw := service.Version
	if raw == "" {
		raw = unversioned
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return false
	}
	return constraint.Check(v)
}

// String returns the string representation
func (r ReferenceDescriptor) String() string {
	if r.Version == "" {
		return r.Classname
	}
	return r.Classname + ":" + r.Version
}

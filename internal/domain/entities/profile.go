// Package entities contains the immutable deployment profiles and the
// directives they carry. Profiles are templates: they are parsed once and
// never mutated, live models are instantiated from them.
package entities

import (
	"fmt"

	"github.com/reglet-dev/composer/internal/domain/values"
)

// ProfileKind identifies the concrete form of a Profile.
type ProfileKind string

const (
	KindComponent   ProfileKind = "component"
	KindNamed       ProfileKind = "named"
	KindContainment ProfileKind = "containment"
	KindInclude     ProfileKind = "include"
	KindComposition ProfileKind = "composition"
)

// Profile is a declaration from which a live model is built.
type Profile interface {
	ProfileName() string
	ProfileMode() values.Mode
	Kind() ProfileKind
}

// ProfileMeta holds the identity shared by every profile kind.
type ProfileMeta struct {
	Name string
	Mode values.Mode
}

func (m ProfileMeta) ProfileName() string { return m.Name }

// ProfileMode returns the declared mode, defaulting to explicit.
func (m ProfileMeta) ProfileMode() values.Mode {
	if !m.Mode.IsValid() {
		return values.ModeExplicit
	}
	return m.Mode
}

// ComponentProfile declares one configured deployment of a component type.
type ComponentProfile struct {
	ProfileMeta
	Classname     string
	Activation    values.ActivationPolicy
	Collection    values.CollectionPolicy
	Categories    *CategoriesDirective
	Configuration map[string]any
	Parameters    map[string]any
	Context       *ContextDirective
	Dependencies  []DependencyDirective
	Stages        []StageDirective
}

func (p *ComponentProfile) Kind() ProfileKind { return KindComponent }

// Dependency returns the directive for the dependency key, or nil.
func (p *ComponentProfile) Dependency(key string) *DependencyDirective {
	for i := range p.Dependencies {
		if p.Dependencies[i].Key == key {
			return &p.Dependencies[i]
		}
	}
	return nil
}

// Stage returns the directive for the stage key, or nil.
func (p *ComponentProfile) Stage(key string) *StageDirective {
	for i := range p.Stages {
		if p.Stages[i].Key == key {
			return &p.Stages[i]
		}
	}
	return nil
}

// Validate checks the profile for structural errors.
func (p *ComponentProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("component profile name is required")
	}
	if p.Classname == "" {
		return fmt.Errorf("component profile %q: classname is required", p.Name)
	}
	seen := make(map[string]bool)
	for _, d := range p.Dependencies {
		if seen["dep:"+d.Key] {
			return fmt.Errorf("component profile %q: duplicate dependency directive %q", p.Name, d.Key)
		}
		seen["dep:"+d.Key] = true
		for _, s := range d.Selections {
			if err := s.Validate(); err != nil {
				return fmt.Errorf("component profile %q: dependency %q: %w", p.Name, d.Key, err)
			}
		}
	}
	for _, s := range p.Stages {
		if seen["stage:"+s.Key] {
			return fmt.Errorf("component profile %q: duplicate stage directive %q", p.Name, s.Key)
		}
		seen["stage:"+s.Key] = true
	}
	return nil
}

// NamedComponentProfile deploys the packaged profile "<type>-<key>" of a
// component type under a new name.
type NamedComponentProfile struct {
	ProfileMeta
	Classname string
	Key       string
}

func (p *NamedComponentProfile) Kind() ProfileKind { return KindNamed }

// ContainmentProfile declares a container and its ordered child profiles.
type ContainmentProfile struct {
	ProfileMeta
	Categories *CategoriesDirective
	Exports    []ServiceDirective
	Profiles   []Profile
}

func (p *ContainmentProfile) Kind() ProfileKind { return KindContainment }

// Validate checks child names are unique and recursively validates children.
func (p *ContainmentProfile) Validate() error {
	seen := make(map[string]bool)
	for _, child := range p.Profiles {
		name := child.ProfileName()
		if name == "" {
			return fmt.Errorf("containment %q: child profile without a name", p.Name)
		}
		if seen[name] {
			return fmt.Errorf("containment %q: duplicate child profile %q", p.Name, name)
		}
		seen[name] = true

		switch c := child.(type) {
		case *ComponentProfile:
			if err := c.Validate(); err != nil {
				return err
			}
		case *ContainmentProfile:
			if err := c.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// BlockIncludeDirective includes a containment profile read from a local resource.
type BlockIncludeDirective struct {
	ProfileMeta
	Path string
}

func (p *BlockIncludeDirective) Kind() ProfileKind { return KindInclude }

// ResourceDirective identifies a versioned artifact in a repository.
type ResourceDirective struct {
	ID      string
	Version string
	Type    string
}

// String returns the string representation
func (r ResourceDirective) String() string {
	s := r.ID
	if r.Version != "" {
		s += ":" + r.Version
	}
	return s
}

// BlockCompositionDirective includes a containment profile fetched from an
// artifact repository and applies target overrides to the result.
type BlockCompositionDirective struct {
	ProfileMeta
	Resource ResourceDirective
	Targets  []TargetDirective
}

func (p *BlockCompositionDirective) Kind() ProfileKind { return KindComposition }

// ProfilePackage is the set of packaged profiles shipped with one type.
type ProfilePackage struct {
	Classname string
	Profiles  []*ComponentProfile
}

// Profile returns the packaged profile with the given name.
func (p ProfilePackage) Profile(name string) (*ComponentProfile, bool) {
	for _, profile := range p.Profiles {
		if profile.Name == name {
			return profile, true
		}
	}
	return nil, false
}

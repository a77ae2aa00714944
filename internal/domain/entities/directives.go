package entities

import (
	"fmt"

	"github.com/reglet-dev/composer/internal/domain/meta"
)

// Selection criteria.
const (
	CriteriaEquals   = "equals"
	CriteriaExists   = "exists"
	CriteriaIncludes = "includes"
	CriteriaExpr     = "expr"
)

// SelectionDirective constrains candidate services by one of their attributes.
// Only required selections take part in filtering.
type SelectionDirective struct {
	Feature  string
	Value    string
	Criteria string
	Required bool
}

// Validate checks the criteria is known.
func (s SelectionDirective) Validate() error {
	switch s.Criteria {
	case CriteriaEquals, CriteriaExists, CriteriaIncludes:
		if s.Feature == "" {
			return fmt.Errorf("selection %q requires a feature", s.Criteria)
		}
		return nil
	case CriteriaExpr:
		if s.Value == "" {
			return fmt.Errorf("expr selection requires an expression value")
		}
		return nil
	default:
		return fmt.Errorf("invalid selection criteria %q for feature %q", s.Criteria, s.Feature)
	}
}

// DependencyDirective binds a dependency either to an explicit source path
// or narrows candidates with selection directives.
type DependencyDirective struct {
	Key        string
	Source     string
	Selections []SelectionDirective
}

// StageDirective binds a stage to an explicit extension provider.
type StageDirective struct {
	Key        string
	Source     string
	Selections []SelectionDirective
}

// CategoryDirective sets the priority of one logging category.
type CategoryDirective struct {
	Name     string
	Priority string
}

// CategoriesDirective sets the root logging priority and child categories of a model.
type CategoriesDirective struct {
	Priority   string
	Categories []CategoryDirective
}

// TargetDirective overrides configuration, parameters and logging of the
// model at Path. A nil parameter value removes the parameter.
type TargetDirective struct {
	Path          string
	Configuration map[string]any
	Parameters    map[string]any
	Categories    *CategoriesDirective
}

// ServiceDirective exports a service from a containment model, delegating
// to the component at Path.
type ServiceDirective struct {
	Reference meta.ReferenceDescriptor
	Path      string
}

package services

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/meta"
)

const maxSelectionNodes = 100

// ServiceEnv is the environment an expr selection is evaluated in.
type ServiceEnv struct {
	Classname  string            `expr:"classname"`
	Version    string            `expr:"version"`
	Attributes map[string]string `expr:"attributes"`
}

// SelectionFilter narrows candidate services with the required selection
// directives of a dependency. All directives must accept a service.
type SelectionFilter struct {
	selections []entities.SelectionDirective
	programs   []*vm.Program
}

// NewSelectionFilter builds a filter from the required selections.
// Invalid criteria and expressions that do not compile are rejected here
// so that matching itself cannot fail.
func NewSelectionFilter(selections []entities.SelectionDirective) (*SelectionFilter, error) {
	f := &SelectionFilter{}
	for _, s := range selections {
		if !s.Required {
			continue
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}

		var program *vm.Program
		if s.Criteria == entities.CriteriaExpr {
			p, err := expr.Compile(s.Value,
				expr.Env(ServiceEnv{}),
				expr.AsBool(),
				expr.MaxNodes(maxSelectionNodes))
			if err != nil {
				return nil, fmt.Errorf("invalid selection expression %q: %w", s.Value, err)
			}
			program = p
		}

		f.selections = append(f.selections, s)
		f.programs = append(f.programs, program)
	}
	return f, nil
}

// IsEmpty reports whether the filter accepts everything.
func (f *SelectionFilter) IsEmpty() bool {
	return f == nil || len(f.selections) == 0
}

// Accepts reports whether every required selection accepts service.
func (f *SelectionFilter) Accepts(service meta.ServiceDescriptor) bool {
	if f.IsEmpty() {
		return true
	}
	for i, s := range f.selections {
		if !f.accepts(service, s, f.programs[i]) {
			return false
		}
	}
	return true
}

// Filter returns the services accepted by the filter, preserving order.
func (f *SelectionFilter) Filter(services []meta.ServiceDescriptor) []meta.ServiceDescriptor {
	out := make([]meta.ServiceDescriptor, 0, len(services))
	for _, s := range services {
		if f.Accepts(s) {
			out = append(out, s)
		}
	}
	return out
}

func (f *SelectionFilter) accepts(service meta.ServiceDescriptor, s entities.SelectionDirective, program *vm.Program) bool {
	value, present := service.Attributes.Get(s.Feature)

	switch s.Criteria {
	case entities.CriteriaEquals:
		return present && value == s.Value
	case entities.CriteriaExists:
		return present
	case entities.CriteriaIncludes:
		return present && strings.Contains(value, s.Value)
	case entities.CriteriaExpr:
		env := ServiceEnv{
			Classname:  service.Reference.Classname,
			Version:    service.Reference.Version,
			Attributes: service.Attributes,
		}
		if env.Attributes == nil {
			env.Attributes = map[string]string{}
		}
		output, err := expr.Run(program, env)
		if err != nil {
			return false
		}
		result, ok := output.(bool)
		return ok && result
	default:
		return false
	}
}

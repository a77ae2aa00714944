package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Variable pattern: {{ .vars.key }}
var varPattern = regexp.MustCompile(`\{\{\s*\.vars\.([a-zA-Z0-9_.]+)\s*\}\}`)

// VariableSubstitutor replaces {{ .vars.key }} references in a profile
// document with values from its vars section.
type VariableSubstitutor struct{}

// NewVariableSubstitutor creates a new variable substitutor.
func NewVariableSubstitutor() *VariableSubstitutor {
	return &VariableSubstitutor{}
}

// Substitute performs variable substitution in the configuration,
// parameters and literal context overrides of every component, and in
// composition target configuration. Supports nested paths like
// {{ .vars.paths.config }}. Returns an error if a referenced variable is
// not found. Modifies the document in place.
func (s *VariableSubstitutor) Substitute(doc *containmentDocument) error {
	return s.substituteContainer(&doc.ContainerSpec, doc.Vars)
}

func (s *VariableSubstitutor) substituteContainer(spec *ContainerSpec, vars map[string]any) error {
	for i := range spec.Profiles {
		p := &spec.Profiles[i]
		switch {
		case p.Component != nil:
			if err := s.substituteComponent(p.Component, vars); err != nil {
				return fmt.Errorf("component %s: %w", p.Component.Name, err)
			}
		case p.Container != nil:
			if err := s.substituteContainer(p.Container, vars); err != nil {
				return err
			}
		case p.Composition != nil:
			for j := range p.Composition.Targets {
				if err := s.substituteInMap(p.Composition.Targets[j].Configuration, vars); err != nil {
					return fmt.Errorf("composition %s, target %s: %w", p.Composition.Name, p.Composition.Targets[j].Path, err)
				}
			}
		}
	}
	return nil
}

func (s *VariableSubstitutor) substituteComponent(spec *ComponentSpec, vars map[string]any) error {
	if err := s.substituteInMap(spec.Configuration, vars); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if err := s.substituteInMap(spec.Parameters, vars); err != nil {
		return fmt.Errorf("parameters: %w", err)
	}
	if spec.Context == nil {
		return nil
	}
	for i := range spec.Context.Entries {
		e := &spec.Context.Entries[i]
		if str, ok := e.Override.(string); ok {
			substituted, err := s.substituteInString(str, vars)
			if err != nil {
				return fmt.Errorf("context entry %s: %w", e.Key, err)
			}
			e.Override = substituted
		}
	}
	return nil
}

// substituteInString replaces patterns with values.
func (s *VariableSubstitutor) substituteInString(str string, vars map[string]any) (string, error) {
	var lastErr error

	result := varPattern.ReplaceAllStringFunc(str, func(match string) string {
		submatches := varPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			lastErr = fmt.Errorf("invalid variable pattern: %s", match)
			return match
		}

		value, err := lookupVar(vars, submatches[1])
		if err != nil {
			lastErr = err
			return match
		}

		return fmt.Sprintf("%v", value)
	})

	if lastErr != nil {
		return "", lastErr
	}
	return result, nil
}

// substituteInMap recursively substitutes variables in map values.
// Modifies the map in place.
func (s *VariableSubstitutor) substituteInMap(m map[string]any, vars map[string]any) error {
	for key, value := range m {
		switch v := value.(type) {
		case string:
			substituted, err := s.substituteInString(v, vars)
			if err != nil {
				return fmt.Errorf("key %s: %w", key, err)
			}
			m[key] = substituted

		case map[string]any:
			if err := s.substituteInMap(v, vars); err != nil {
				return fmt.Errorf("key %s: %w", key, err)
			}

		case []any:
			for i, elem := range v {
				if str, ok := elem.(string); ok {
					substituted, err := s.substituteInString(str, vars)
					if err != nil {
						return fmt.Errorf("key %s[%d]: %w", key, i, err)
					}
					v[i] = substituted
				} else if nested, ok := elem.(map[string]any); ok {
					if err := s.substituteInMap(nested, vars); err != nil {
						return fmt.Errorf("key %s[%d]: %w", key, i, err)
					}
				}
			}
		}
	}

	return nil
}

// lookupVar looks up a variable value by path (e.g., "config.path").
// Supports nested paths using dot notation.
func lookupVar(vars map[string]any, path string) (any, error) {
	parts := strings.Split(path, ".")
	current := any(vars)

	for i, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("variable path %s: cannot access %s (not a map)", path, strings.Join(parts[:i+1], "."))
		}

		value, exists := m[part]
		if !exists {
			return nil, fmt.Errorf("variable not found: %s", path)
		}

		current = value
	}

	switch v := current.(type) {
	case string, int, int64, uint64, float64, bool:
		return v, nil
	case map[string]any:
		return v, nil
	default:
		val := reflect.ValueOf(v)
		if val.Kind() == reflect.Int || val.Kind() == reflect.Int64 {
			return val.Int(), nil
		}
		if val.Kind() == reflect.Float64 {
			return val.Float(), nil
		}
		return v, nil
	}
}

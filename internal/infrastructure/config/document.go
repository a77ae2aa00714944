// Package config provides infrastructure for loading containment profiles.
// This package handles YAML parsing, schema validation, file I/O, variable
// substitution and the resolution of included and composed blocks.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/meta"
	"github.com/reglet-dev/composer/internal/domain/values"
)

// containmentDocument is the YAML form of a containment profile file.
type containmentDocument struct {
	ContainerSpec `yaml:",inline"`
	Vars          map[string]any `yaml:"vars"`
}

// ContainerSpec is the YAML form of a containment profile. It must stay
// exported: the decoder skips unexported embedded structs, inline or not.
type ContainerSpec struct {
	Name       string          `yaml:"name"`
	Mode       string          `yaml:"mode"`
	Categories *categoriesSpec `yaml:"categories"`
	Exports    []exportSpec    `yaml:"exports"`
	Profiles   []profileSpec   `yaml:"profiles"`
}

// profileSpec holds exactly one child profile form.
type profileSpec struct {
	Component   *ComponentSpec   `yaml:"component"`
	Container   *ContainerSpec   `yaml:"container"`
	Include     *includeSpec     `yaml:"include"`
	Composition *compositionSpec `yaml:"composition"`
	Named       *namedSpec       `yaml:"named"`
}

// ComponentSpec is the YAML form of a component profile. Type descriptors
// embed it for their packaged profiles.
type ComponentSpec struct {
	Name          string          `yaml:"name"`
	Class         string          `yaml:"class"`
	Mode          string          `yaml:"mode"`
	Activation    string          `yaml:"activation"`
	Collection    string          `yaml:"collection"`
	Categories    *categoriesSpec `yaml:"categories"`
	Configuration map[string]any  `yaml:"configuration"`
	Parameters    map[string]any  `yaml:"parameters"`
	Context       *contextSpec    `yaml:"context"`
	Dependencies  []bindingSpec   `yaml:"dependencies"`
	Stages        []bindingSpec   `yaml:"stages"`
}

type namedSpec struct {
	Name  string `yaml:"name"`
	Class string `yaml:"class"`
	Key   string `yaml:"key"`
}

type includeSpec struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type compositionSpec struct {
	Name     string       `yaml:"name"`
	Resource resourceSpec `yaml:"resource"`
	Targets  []targetSpec `yaml:"targets"`
}

type resourceSpec struct {
	ID      string `yaml:"id"`
	Version string `yaml:"version"`
	Type    string `yaml:"type"`
}

type categoriesSpec struct {
	Priority   string         `yaml:"priority"`
	Categories []categorySpec `yaml:"categories"`
}

type categorySpec struct {
	Name     string `yaml:"name"`
	Priority string `yaml:"priority"`
}

type exportSpec struct {
	Service referenceSpec `yaml:"service"`
	Path    string        `yaml:"path"`
}

type referenceSpec struct {
	Classname string `yaml:"classname"`
	Version   string `yaml:"version"`
}

type bindingSpec struct {
	Key        string          `yaml:"key"`
	Source     string          `yaml:"source"`
	Selections []selectionSpec `yaml:"selections"`
}

type selectionSpec struct {
	Feature  string `yaml:"feature"`
	Value    string `yaml:"value"`
	Criteria string `yaml:"criteria"`
	Required bool   `yaml:"required"`
}

type contextSpec struct {
	Strategy string      `yaml:"strategy"`
	Entries  []entrySpec `yaml:"entries"`
}

// entrySpec describes an entry source: a constructed value (value, class,
// args), an import of a system key, or a literal override.
type entrySpec struct {
	Key      string      `yaml:"key"`
	Class    string      `yaml:"class"`
	Value    *string     `yaml:"value"`
	Args     []entrySpec `yaml:"args"`
	Import   string      `yaml:"import"`
	Override any         `yaml:"override"`
}

type targetsDocument struct {
	Targets []targetSpec `yaml:"targets"`
}

type targetSpec struct {
	Path          string          `yaml:"path"`
	Configuration map[string]any  `yaml:"configuration"`
	Parameters    map[string]any  `yaml:"parameters"`
	Categories    *categoriesSpec `yaml:"categories"`
}

// converter turns documents into profiles. Include paths are resolved
// against dir when it is set.
type converter struct {
	dir string
}

func (c converter) containment(spec ContainerSpec) (*entities.ContainmentProfile, error) {
	mode, err := values.ParseMode(spec.Mode)
	if err != nil {
		return nil, fmt.Errorf("container %q: %w", spec.Name, err)
	}

	p := &entities.ContainmentProfile{
		ProfileMeta: entities.ProfileMeta{Name: spec.Name, Mode: mode},
		Categories:  categories(spec.Categories),
	}

	for _, e := range spec.Exports {
		ref, err := meta.NewReference(e.Service.Classname, e.Service.Version)
		if err != nil {
			return nil, fmt.Errorf("container %q: export: %w", spec.Name, err)
		}
		p.Exports = append(p.Exports, entities.ServiceDirective{Reference: ref, Path: e.Path})
	}

	for i, child := range spec.Profiles {
		profile, err := c.profile(child)
		if err != nil {
			return nil, fmt.Errorf("container %q: profile %d: %w", spec.Name, i, err)
		}
		p.Profiles = append(p.Profiles, profile)
	}
	return p, nil
}

func (c converter) profile(spec profileSpec) (entities.Profile, error) {
	switch {
	case spec.Component != nil:
		return c.component(*spec.Component)
	case spec.Container != nil:
		return c.containment(*spec.Container)
	case spec.Named != nil:
		return &entities.NamedComponentProfile{
			ProfileMeta: entities.ProfileMeta{Name: spec.Named.Name, Mode: values.ModeExplicit},
			Classname:   spec.Named.Class,
			Key:         spec.Named.Key,
		}, nil
	case spec.Include != nil:
		path := spec.Include.Path
		if c.dir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(c.dir, path)
		}
		return &entities.BlockIncludeDirective{
			ProfileMeta: entities.ProfileMeta{Name: spec.Include.Name, Mode: values.ModeExplicit},
			Path:        path,
		}, nil
	case spec.Composition != nil:
		return &entities.BlockCompositionDirective{
			ProfileMeta: entities.ProfileMeta{Name: spec.Composition.Name, Mode: values.ModeExplicit},
			Resource: entities.ResourceDirective{
				ID:      spec.Composition.Resource.ID,
				Version: spec.Composition.Resource.Version,
				Type:    spec.Composition.Resource.Type,
			},
			Targets: targets(spec.Composition.Targets),
		}, nil
	default:
		return nil, fmt.Errorf("empty profile entry")
	}
}

func (c converter) component(spec ComponentSpec) (*entities.ComponentProfile, error) {
	mode, err := values.ParseMode(spec.Mode)
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", spec.Name, err)
	}
	activation, err := values.ParseActivationPolicy(spec.Activation)
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", spec.Name, err)
	}
	collection, err := values.ParseCollectionPolicy(spec.Collection)
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", spec.Name, err)
	}

	p := &entities.ComponentProfile{
		ProfileMeta:   entities.ProfileMeta{Name: spec.Name, Mode: mode},
		Classname:     spec.Class,
		Activation:    activation,
		Collection:    collection,
		Categories:    categories(spec.Categories),
		Configuration: spec.Configuration,
		Parameters:    spec.Parameters,
	}

	if spec.Context != nil {
		ctx := &entities.ContextDirective{Strategy: spec.Context.Strategy}
		for _, e := range spec.Context.Entries {
			source, err := entrySource(e)
			if err != nil {
				return nil, fmt.Errorf("component %q: context entry %q: %w", spec.Name, e.Key, err)
			}
			ctx.Entries = append(ctx.Entries, entities.EntryDirective{Key: e.Key, Source: source})
		}
		p.Context = ctx
	}

	for _, d := range spec.Dependencies {
		p.Dependencies = append(p.Dependencies, entities.DependencyDirective{
			Key:        d.Key,
			Source:     d.Source,
			Selections: selections(d.Selections),
		})
	}
	for _, s := range spec.Stages {
		p.Stages = append(p.Stages, entities.StageDirective{
			Key:        s.Key,
			Source:     s.Source,
			Selections: selections(s.Selections),
		})
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ComponentProfile converts a component spec into a validated profile.
func ComponentProfile(spec ComponentSpec) (*entities.ComponentProfile, error) {
	return converter{}.component(spec)
}

func entrySource(e entrySpec) (entities.EntrySource, error) {
	forms := 0
	if e.Import != "" {
		forms++
	}
	if e.Override != nil {
		forms++
	}
	if e.Value != nil || e.Class != "" || len(e.Args) > 0 {
		forms++
	}
	if forms != 1 {
		return nil, fmt.Errorf("exactly one of value/class/args, import or override is required")
	}

	switch {
	case e.Import != "":
		return entities.Imported{Key: e.Import}, nil
	case e.Override != nil:
		return entities.Overridden{Value: e.Override}, nil
	}

	c := entities.Constructed{Classname: e.Class}
	if e.Value != nil {
		c.Value = *e.Value
	}
	for i, arg := range e.Args {
		source, err := entrySource(arg)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		c.Args = append(c.Args, source)
	}
	return c, nil
}

func selections(specs []selectionSpec) []entities.SelectionDirective {
	var out []entities.SelectionDirective
	for _, s := range specs {
		out = append(out, entities.SelectionDirective{
			Feature:  s.Feature,
			Value:    s.Value,
			Criteria: s.Criteria,
			Required: s.Required,
		})
	}
	return out
}

func categories(spec *categoriesSpec) *entities.CategoriesDirective {
	if spec == nil {
		return nil
	}
	out := &entities.CategoriesDirective{Priority: spec.Priority}
	for _, c := range spec.Categories {
		out.Categories = append(out.Categories, entities.CategoryDirective{Name: c.Name, Priority: c.Priority})
	}
	return out
}

func targets(specs []targetSpec) []entities.TargetDirective {
	var out []entities.TargetDirective
	for _, t := range specs {
		out = append(out, entities.TargetDirective{
			Path:          t.Path,
			Configuration: t.Configuration,
			Parameters:    t.Parameters,
			Categories:    categories(t.Categories),
		})
	}
	return out
}

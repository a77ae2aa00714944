package scanner

import (
	"fmt"

	"github.com/reglet-dev/composer/internal/domain/capabilities"
	"github.com/reglet-dev/composer/internal/domain/catalog"
	"github.com/reglet-dev/composer/internal/domain/meta"
	"github.com/reglet-dev/composer/internal/domain/values"
	"github.com/reglet-dev/composer/internal/infrastructure/config"
)

// typeDocument is the YAML form of a *.type.yaml descriptor.
type typeDocument struct {
	Info          infoSpec                  `yaml:"info"`
	Services      []serviceSpec             `yaml:"services"`
	Dependencies  []dependencySpec          `yaml:"dependencies"`
	Stages        []keySpec                 `yaml:"stages"`
	Extensions    []keySpec                 `yaml:"extensions"`
	Context       contextSpec               `yaml:"context"`
	Categories    []categorySpec            `yaml:"categories"`
	Configuration map[string]any            `yaml:"configuration"`
	Parameters    map[string]string         `yaml:"parameters"`
	Capabilities  []capabilities.Capability `yaml:"capabilities"`
	Profiles      []config.ComponentSpec    `yaml:"profiles"`
}

type infoSpec struct {
	Name       string            `yaml:"name"`
	Classname  string            `yaml:"classname"`
	Version    string            `yaml:"version"`
	Lifestyle  string            `yaml:"lifestyle"`
	Collection string            `yaml:"collection"`
	Attributes map[string]string `yaml:"attributes"`
}

// serviceSpec is also the form of a *.service.yaml definition.
type serviceSpec struct {
	Classname  string            `yaml:"classname"`
	Version    string            `yaml:"version"`
	Attributes map[string]string `yaml:"attributes"`
}

type dependencySpec struct {
	Key        string            `yaml:"key"`
	Classname  string            `yaml:"classname"`
	Version    string            `yaml:"version"`
	Optional   bool              `yaml:"optional"`
	Attributes map[string]string `yaml:"attributes"`
}

type keySpec struct {
	Key        string            `yaml:"key"`
	Attributes map[string]string `yaml:"attributes"`
}

type contextSpec struct {
	Strategy   string            `yaml:"strategy"`
	Entries    []entrySpec       `yaml:"entries"`
	Attributes map[string]string `yaml:"attributes"`
}

type entrySpec struct {
	Key       string `yaml:"key"`
	Classname string `yaml:"classname"`
	Alias     string `yaml:"alias"`
	Optional  bool   `yaml:"optional"`
	Volatile  bool   `yaml:"volatile"`
}

type categorySpec struct {
	Name     string `yaml:"name"`
	Priority string `yaml:"priority"`
}

func (d *typeDocument) entry() (catalog.Entry, error) {
	if d.Info.Classname == "" {
		return catalog.Entry{}, fmt.Errorf("info.classname is required")
	}
	collection, err := values.ParseCollectionPolicy(d.Info.Collection)
	if err != nil {
		return catalog.Entry{}, err
	}

	t := &meta.Type{
		Info: meta.InfoDescriptor{
			Name:       d.Info.Name,
			Classname:  d.Info.Classname,
			Version:    d.Info.Version,
			Lifestyle:  d.Info.Lifestyle,
			Collection: collection,
			Attributes: d.Info.Attributes,
		},
		Context: meta.ContextDescriptor{
			Strategy:   d.Context.Strategy,
			Attributes: d.Context.Attributes,
		},
		Configuration: d.Configuration,
		Parameters:    d.Parameters,
	}

	for _, s := range d.Services {
		svc, err := s.descriptor()
		if err != nil {
			return catalog.Entry{}, err
		}
		t.Services = append(t.Services, svc)
	}
	seen := make(map[string]bool)
	for _, dep := range d.Dependencies {
		if dep.Key == "" {
			return catalog.Entry{}, fmt.Errorf("dependency without key")
		}
		if seen[dep.Key] {
			return catalog.Entry{}, fmt.Errorf("duplicate dependency %q", dep.Key)
		}
		seen[dep.Key] = true
		ref, err := meta.NewReference(dep.Classname, dep.Version)
		if err != nil {
			return catalog.Entry{}, fmt.Errorf("dependency %q: %w", dep.Key, err)
		}
		t.Dependencies = append(t.Dependencies, meta.DependencyDescriptor{
			Key:        dep.Key,
			Reference:  ref,
			Optional:   dep.Optional,
			Attributes: dep.Attributes,
		})
	}
	for _, s := range d.Stages {
		t.Stages = append(t.Stages, meta.StageDescriptor{Key: s.Key, Attributes: s.Attributes})
	}
	for _, e := range d.Extensions {
		t.Extensions = append(t.Extensions, meta.ExtensionDescriptor{Key: e.Key, Attributes: e.Attributes})
	}
	for _, e := range d.Context.Entries {
		t.Context.Entries = append(t.Context.Entries, meta.EntryDescriptor{
			Key:       e.Key,
			Classname: e.Classname,
			Alias:     e.Alias,
			Optional:  e.Optional,
			Volatile:  e.Volatile,
		})
	}
	for _, c := range d.Categories {
		t.Categories = append(t.Categories, meta.CategoryDescriptor{Name: c.Name, Priority: c.Priority})
	}
	for _, c := range d.Capabilities {
		if _, err := capabilities.Parse(c.Kind + ":" + c.Pattern); err != nil {
			return catalog.Entry{}, err
		}
		t.Capabilities = append(t.Capabilities, c)
	}
	if _, err := t.DeploymentTimeout(0); err != nil {
		return catalog.Entry{}, err
	}

	entry := catalog.Entry{Type: t}
	for _, spec := range d.Profiles {
		if spec.Class == "" {
			spec.Class = t.Classname()
		}
		if spec.Mode == "" {
			spec.Mode = values.ModePackaged.String()
		}
		profile, err := config.ComponentProfile(spec)
		if err != nil {
			return catalog.Entry{}, fmt.Errorf("packaged profile: %w", err)
		}
		entry.Profiles = append(entry.Profiles, profile)
	}
	return entry, nil
}

func (s serviceSpec) descriptor() (meta.ServiceDescriptor, error) {
	ref, err := meta.NewReference(s.Classname, s.Version)
	if err != nil {
		return meta.ServiceDescriptor{}, fmt.Errorf("service: %w", err)
	}
	return meta.ServiceDescriptor{Reference: ref, Attributes: s.Attributes}, nil
}

package model

import (
	"log/slog"

	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/meta"
	"github.com/reglet-dev/composer/internal/domain/services"
	"github.com/reglet-dev/composer/internal/domain/values"
)

// DependencyModel is the live requirement of a component for one service.
// A directive source is resolved to an absolute path at construction; when
// present it bypasses candidate ranking during assembly.
type DependencyModel struct {
	ProviderBinding

	descriptor meta.DependencyDescriptor
	directive  *entities.DependencyDirective
	path       string
	filter     *services.SelectionFilter
}

// NewDependencyModel creates the requirement for descriptor within partition.
func NewDependencyModel(
	logger *slog.Logger,
	partition string,
	descriptor meta.DependencyDescriptor,
	directive *entities.DependencyDirective,
) (*DependencyModel, error) {
	d := &DependencyModel{descriptor: descriptor, directive: directive}
	if directive == nil {
		return d, nil
	}

	if directive.Source != "" {
		path, err := values.ResolvePath(partition, directive.Source)
		if err != nil {
			return nil, NewModelError(partition, "dependency "+descriptor.Key+": cannot resolve source "+directive.Source, err)
		}
		d.path = path
		logger.Debug("dependency bound to explicit path", "key", descriptor.Key, "path", path)
		return d, nil
	}

	filter, err := services.NewSelectionFilter(directive.Selections)
	if err != nil {
		return nil, NewModelError(partition, "dependency "+descriptor.Key, err)
	}
	d.filter = filter
	return d, nil
}

// Key returns the dependency key.
func (d *DependencyModel) Key() string { return d.descriptor.Key }

// Descriptor returns the dependency descriptor.
func (d *DependencyModel) Descriptor() meta.DependencyDescriptor { return d.descriptor }

// Path returns the resolved explicit provider path, or "" when none.
func (d *DependencyModel) Path() string { return d.path }

// Filter narrows candidate services with the directive's required selections.
// Without an explicit source and selections every service passes.
func (d *DependencyModel) Filter(candidates []meta.ServiceDescriptor) []meta.ServiceDescriptor {
	return d.filter.Filter(candidates)
}

// AcceptsService reports whether service satisfies the reference and filter.
func (d *DependencyModel) AcceptsService(service meta.ServiceDescriptor) bool {
	return d.descriptor.Reference.Satisfies(service.Reference) && d.filter.Accepts(service)
}

// Accepts reports whether m is a candidate provider.
func (d *DependencyModel) Accepts(m Model) bool {
	for _, s := range m.Services() {
		if d.AcceptsService(s) {
			return true
		}
	}
	return false
}

// AcceptsType reports whether a type could provide the dependency.
func (d *DependencyModel) AcceptsType(t *meta.Type) bool {
	for _, s := range t.Services {
		if d.AcceptsService(s) {
			return true
		}
	}
	return false
}

// StageModel is the live requirement of a component for a stage handler.
type StageModel struct {
	ProviderBinding

	descriptor meta.StageDescriptor
	directive  *entities.StageDirective
	path       string
	filter     *services.SelectionFilter
}

// NewStageModel creates the requirement for descriptor within partition.
func NewStageModel(
	logger *slog.Logger,
	partition string,
	descriptor meta.StageDescriptor,
	directive *entities.StageDirective,
) (*StageModel, error) {
	s := &StageModel{descriptor: descriptor, directive: directive}
	if directive == nil {
		return s, nil
	}

	if directive.Source != "" {
		path, err := values.ResolvePath(partition, directive.Source)
		if err != nil {
			return nil, NewModelError(partition, "stage "+descriptor.Key+": cannot resolve source "+directive.Source, err)
		}
		s.path = path
		logger.Debug("stage bound to explicit path", "key", descriptor.Key, "path", path)
		return s, nil
	}

	filter, err := services.NewSelectionFilter(directive.Selections)
	if err != nil {
		return nil, NewModelError(partition, "stage "+descriptor.Key, err)
	}
	s.filter = filter
	return s, nil
}

// Key returns the stage key.
func (s *StageModel) Key() string { return s.descriptor.Key }

// Descriptor returns the stage descriptor.
func (s *StageModel) Descriptor() meta.StageDescriptor { return s.descriptor }

// Path returns the resolved explicit provider path, or "" when none.
func (s *StageModel) Path() string { return s.path }

// AcceptsExtension reports whether ext handles the stage and passes the filter.
func (s *StageModel) AcceptsExtension(ext meta.ExtensionDescriptor) bool {
	if ext.Key != s.descriptor.Key {
		return false
	}
	return s.filter.Accepts(meta.ServiceDescriptor{
		Reference:  meta.ReferenceDescriptor{Classname: ext.Key},
		Attributes: ext.Attributes,
	})
}

// Accepts reports whether m is a candidate stage handler.
func (s *StageModel) Accepts(m Model) bool {
	for _, ext := range m.Extensions() {
		if s.AcceptsExtension(ext) {
			return true
		}
	}
	return false
}

// AcceptsType reports whether a type could handle the stage.
func (s *StageModel) AcceptsType(t *meta.Type) bool {
	for _, ext := range t.Extensions {
		if s.AcceptsExtension(ext) {
			return true
		}
	}
	return false
}

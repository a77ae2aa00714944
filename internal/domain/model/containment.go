package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/reglet-dev/composer/internal/domain/catalog"
	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/meta"
	"github.com/reglet-dev/composer/internal/domain/services"
	"github.com/reglet-dev/composer/internal/domain/values"
)

// ErrModelNotFound is returned when a path or requirement resolves to no model.
var ErrModelNotFound = errors.New("model not found")

var (
	modelSelector   = services.NewModeSelector(func(m Model) values.Mode { return m.Mode() })
	profileSelector = services.NewProfileSelector()
)

// ContainmentModel is the live model of a container. It owns the ordered
// child models of its scope and the listeners observing them.
type ContainmentModel struct {
	name       string
	partition  string
	mode       values.Mode
	parent     *ContainmentModel
	profile    *entities.ContainmentProfile
	env        *Environment
	logger     *slog.Logger
	homeDir    string
	tempDir    string
	repository *Repository

	// compositionMu serializes child registration with listener dispatch.
	compositionMu sync.Mutex
	listenersMu   sync.RWMutex
	listeners     []CompositionListener

	mu         sync.RWMutex
	categories *entities.CategoriesDirective
}

// NewRootContainmentModel builds the root of a containment tree from profile,
// creating every declared child in order.
func NewRootContainmentModel(ctx context.Context, env *Environment, profile *entities.ContainmentProfile) (*ContainmentModel, error) {
	if env == nil {
		return nil, fmt.Errorf("containment environment is required")
	}
	if env.Types == nil {
		return nil, fmt.Errorf("containment environment requires a type repository")
	}
	return newContainmentModel(ctx, env, nil, profile.Name, profile.ProfileMode(), profile)
}

func newContainmentModel(
	ctx context.Context,
	env *Environment,
	parent *ContainmentModel,
	name string,
	mode values.Mode,
	profile *entities.ContainmentProfile,
) (*ContainmentModel, error) {
	c := &ContainmentModel{
		name:       name,
		mode:       mode,
		parent:     parent,
		profile:    profile,
		env:        env,
		categories: profile.Categories,
		homeDir:    env.HomeDir,
		tempDir:    env.TempDir,
	}
	if parent != nil {
		c.partition = parent.ChildPartition()
		c.homeDir = filepath.Join(parent.homeDir, name)
		c.tempDir = filepath.Join(parent.tempDir, name)
		c.repository = NewRepository(parent.repository)
	} else {
		c.repository = NewRepository(nil)
	}

	if env.Logging != nil && profile.Categories != nil {
		env.Logging.AddCategories(c.Path(), profile.Categories)
	}
	c.logger = env.logger(c.Path())

	if err := profile.Validate(); err != nil {
		return nil, NewModelError(c.Path(), "invalid containment profile", err)
	}

	for _, child := range profile.Profiles {
		if _, err := c.AddModel(ctx, child); err != nil {
			return nil, err
		}
	}

	if err := c.verifyExports(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ContainmentModel) Name() string              { return c.name }
func (c *ContainmentModel) Partition() string         { return c.partition }
func (c *ContainmentModel) Mode() values.Mode         { return c.mode }
func (c *ContainmentModel) Parent() *ContainmentModel { return c.parent }
func (c *ContainmentModel) Logger() *slog.Logger      { return c.logger }

// Path returns the qualified name. The root container is "/".
func (c *ContainmentModel) Path() string {
	if c.isRoot() {
		return values.RootPartition
	}
	return values.QualifiedName(c.partition, c.name)
}

// ChildPartition returns the partition children of this container live in.
func (c *ContainmentModel) ChildPartition() string {
	if c.isRoot() {
		return values.RootPartition
	}
	return c.Path() + values.PartitionSeparator
}

func (c *ContainmentModel) isRoot() bool {
	return c.parent == nil
}

// Root returns the root of the containment tree.
func (c *ContainmentModel) Root() *ContainmentModel {
	root := c
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Types returns the type catalog visible from this container.
func (c *ContainmentModel) Types() *catalog.TypeRepository { return c.env.Types }

// Repository returns the registry of child models.
func (c *ContainmentModel) Repository() *Repository { return c.repository }

// Environment returns the shared environment of the tree.
func (c *ContainmentModel) Environment() *Environment { return c.env }

// HomeDir returns the container working directory.
func (c *ContainmentModel) HomeDir() string { return c.homeDir }

// Profile returns the profile the container was built from.
func (c *ContainmentModel) Profile() *entities.ContainmentProfile { return c.profile }

// Services lists the services exported by the container.
func (c *ContainmentModel) Services() []meta.ServiceDescriptor {
	out := make([]meta.ServiceDescriptor, 0, len(c.profile.Exports))
	for _, export := range c.profile.Exports {
		out = append(out, meta.ServiceDescriptor{Reference: export.Reference})
	}
	return out
}

// Extensions is always empty: containers never handle stages.
func (c *ContainmentModel) Extensions() []meta.ExtensionDescriptor { return nil }

// IsAssembled reports whether every child is assembled.
func (c *ContainmentModel) IsAssembled() bool {
	for _, m := range c.Models() {
		if !m.IsAssembled() {
			return false
		}
	}
	return true
}

// Assemble is a no-op: children are assembled by the assembly engine.
func (c *ContainmentModel) Assemble() error { return nil }

// Disassemble clears the provider bindings of every descendant.
func (c *ContainmentModel) Disassemble() {
	for _, m := range c.Models() {
		m.Disassemble()
	}
}

// Models returns the children in registration order.
func (c *ContainmentModel) Models() []Model {
	return c.repository.Models()
}

// Components returns every component model of the subtree, depth first in
// registration order.
func (c *ContainmentModel) Components() []*ComponentModel {
	var out []*ComponentModel
	for _, m := range c.Models() {
		switch t := m.(type) {
		case *ComponentModel:
			out = append(out, t)
		case *ContainmentModel:
			out = append(out, t.Components()...)
		}
	}
	return out
}

// AddCompositionListener registers l for add and remove events.
func (c *ContainmentModel) AddCompositionListener(l CompositionListener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, l)
	c.listenersMu.Unlock()
}

// RemoveCompositionListener unregisters l.
func (c *ContainmentModel) RemoveCompositionListener(l CompositionListener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	for i, existing := range c.listeners {
		if existing == l {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

func (c *ContainmentModel) listenerSnapshot() []CompositionListener {
	c.listenersMu.RLock()
	defer c.listenersMu.RUnlock()
	out := make([]CompositionListener, len(c.listeners))
	copy(out, c.listeners)
	return out
}

// AddModel builds a model from profile, registers it and notifies listeners.
// Listeners must not add or remove models on the same container.
func (c *ContainmentModel) AddModel(ctx context.Context, profile entities.Profile) (Model, error) {
	if profile == nil {
		return nil, NewModelError(c.Path(), "nil profile", nil)
	}

	c.compositionMu.Lock()
	defer c.compositionMu.Unlock()

	name := profile.ProfileName()
	if _, exists := c.repository.Model(name); exists {
		return nil, NewModelError(c.Path(), fmt.Sprintf("duplicate model name %q", name), nil)
	}

	m, err := c.createModel(ctx, profile)
	if err != nil {
		return nil, err
	}
	if err := c.repository.Add(m); err != nil {
		return nil, NewModelError(c.Path(), "cannot register model", err)
	}

	c.logger.Debug("model added", "name", name, "kind", string(profile.Kind()))
	c.notify(c.listenerSnapshot(), "added", func(l CompositionListener) error {
		return l.ModelAdded(CompositionEvent{Source: c, Child: m})
	})
	return m, nil
}

// RemoveModel unregisters the child named name and notifies listeners.
func (c *ContainmentModel) RemoveModel(name string) (Model, error) {
	c.compositionMu.Lock()
	defer c.compositionMu.Unlock()

	m, ok := c.repository.Remove(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s%s", ErrModelNotFound, c.ChildPartition(), name)
	}

	c.logger.Debug("model removed", "name", name)
	c.notify(c.listenerSnapshot(), "removed", func(l CompositionListener) error {
		return l.ModelRemoved(CompositionEvent{Source: c, Child: m})
	})
	return m, nil
}

func (c *ContainmentModel) createModel(ctx context.Context, profile entities.Profile) (Model, error) {
	switch p := profile.(type) {
	case *entities.ComponentProfile:
		return newComponentModel(c, p)

	case *entities.NamedComponentProfile:
		return c.createNamed(p)

	case *entities.ContainmentProfile:
		return newContainmentModel(ctx, c.env, c, p.Name, p.ProfileMode(), p)

	case *entities.BlockIncludeDirective:
		if c.env.Blocks == nil {
			return nil, NewModelError(c.Path(), "no block resolver for include "+p.Path, nil)
		}
		included, err := c.env.Blocks.Include(ctx, p.Path)
		if err != nil {
			return nil, NewModelError(c.Path(),
				fmt.Sprintf("unable to include block %q from %s", p.Name, p.Path), err)
		}
		return newContainmentModel(ctx, c.env, c, blockName(p.Name, included), p.ProfileMode(), included)

	case *entities.BlockCompositionDirective:
		return c.createComposition(ctx, p)

	default:
		return nil, NewModelError(c.Path(), fmt.Sprintf("no handler for profile type %T", profile), nil)
	}
}

func blockName(name string, profile *entities.ContainmentProfile) string {
	if name != "" {
		return name
	}
	return profile.Name
}

func (c *ContainmentModel) createNamed(p *entities.NamedComponentProfile) (Model, error) {
	path := values.QualifiedName(c.ChildPartition(), p.Name)
	typ, err := c.Types().Type(p.Classname)
	if err != nil {
		return nil, NewModelError(path, "no type registered for "+p.Classname, err)
	}
	template, err := c.Types().Profile(typ, p.Key)
	if err != nil {
		return nil, NewModelError(path, "no packaged profile "+p.Key, err)
	}
	deployment := *template
	deployment.Name = p.Name
	deployment.Mode = p.ProfileMode()
	return newComponentModel(c, &deployment)
}

func (c *ContainmentModel) createComposition(ctx context.Context, p *entities.BlockCompositionDirective) (Model, error) {
	if c.env.Blocks == nil {
		return nil, NewModelError(c.Path(), "no block resolver for resource "+p.Resource.String(), nil)
	}
	composed, err := c.env.Blocks.Compose(ctx, p.Resource)
	if err != nil {
		return nil, NewModelError(c.Path(),
			fmt.Sprintf("unable to include block %q because of a repository related error", p.Name), err)
	}
	model, err := newContainmentModel(ctx, c.env, c, blockName(p.Name, composed), p.ProfileMode(), composed)
	if err != nil {
		return nil, err
	}
	model.ApplyTargets(p.Targets)
	return model, nil
}

// GetModel resolves a slash delimited path. Absolute paths start at the
// root container, relative paths at c. An empty path names c itself.
// Walking through a component fails with ErrModelRuntime.
func (c *ContainmentModel) GetModel(path string) (Model, error) {
	if strings.HasPrefix(path, values.PartitionSeparator) {
		return c.Root().getModel(path[1:], path)
	}
	return c.getModel(path, path)
}

func (c *ContainmentModel) getModel(path, full string) (Model, error) {
	key, remainder, nested := strings.Cut(path, values.PartitionSeparator)
	if key == "" {
		return c, nil
	}

	m, ok := c.repository.Model(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, full)
	}
	if !nested {
		return m, nil
	}

	child, ok := m.(*ContainmentModel)
	if !ok {
		return nil, fmt.Errorf("%w: bad path element %s in path %s", ErrModelRuntime, key, full)
	}
	return child.getModel(remainder, full)
}

// ModelForDependency returns an existing child able to provide dep or, when
// none exists, synthesizes one from the best packaged profile.
func (c *ContainmentModel) ModelForDependency(ctx context.Context, dep *DependencyModel) (Model, error) {
	return c.modelFor(ctx, dep)
}

// ModelForStage returns an existing child able to handle stage or, when none
// exists, synthesizes one from the best packaged profile.
func (c *ContainmentModel) ModelForStage(ctx context.Context, stage *StageModel) (Model, error) {
	return c.modelFor(ctx, stage)
}

func (c *ContainmentModel) modelFor(ctx context.Context, req Requirement) (Model, error) {
	if m, ok := modelSelector.Select(c.Models(), req.Accepts); ok {
		return m, nil
	}
	profile, err := c.PackagedProfile(req)
	if err != nil {
		return nil, NewModelError(c.Path(), "unable to create model for "+req.Key(), err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: no provider for %s", ErrModelNotFound, req.Key())
	}
	return c.AddModel(ctx, profile)
}

// SelectModel ranks models by mode and returns the first accepted by req.
func SelectModel(models []Model, req Requirement) (Model, bool) {
	return modelSelector.Select(models, req.Accepts)
}

// PackagedProfile returns the best packaged profile of any type able to
// satisfy req, or nil when there is none.
func (c *ContainmentModel) PackagedProfile(req Requirement) (*entities.ComponentProfile, error) {
	var types []*meta.Type
	switch r := req.(type) {
	case *DependencyModel:
		types = c.Types().TypesForDependency(r.Descriptor())
	case *StageModel:
		types = c.Types().TypesForStage(r.Descriptor())
	default:
		types = c.Types().Types(true)
	}

	var accepted []*meta.Type
	for _, t := range types {
		if req.AcceptsType(t) {
			accepted = append(accepted, t)
		}
	}

	profiles, err := c.Types().ProfilesFor(accepted)
	if err != nil {
		return nil, err
	}
	profile, ok := profileSelector.Select(profiles, nil)
	if !ok {
		return nil, nil
	}
	return profile, nil
}

// ExportProvider returns the component delegated to by the export that
// satisfies dep.
func (c *ContainmentModel) ExportProvider(dep *DependencyModel) (*ComponentModel, error) {
	for _, export := range c.profile.Exports {
		if !dep.AcceptsService(meta.ServiceDescriptor{Reference: export.Reference}) {
			continue
		}
		target, err := c.GetModel(export.Path)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", export.Reference, err)
		}
		switch t := target.(type) {
		case *ComponentModel:
			return t, nil
		case *ContainmentModel:
			return t.ExportProvider(dep)
		}
	}
	return nil, fmt.Errorf("%w: container %s exports no service for %s", ErrModelNotFound, c.Path(), dep.Key())
}

func (c *ContainmentModel) verifyExports() error {
	for _, export := range c.profile.Exports {
		if c.env.Services != nil {
			if _, err := c.env.Services.Service(export.Reference); err != nil {
				return NewModelError(c.Path(), "export of undefined service", err)
			}
		}
		if strings.HasPrefix(export.Path, values.PartitionSeparator) {
			return NewModelError(c.Path(), "export path must be relative: "+export.Path, nil)
		}
		if _, err := c.GetModel(export.Path); err != nil {
			return NewModelError(c.Path(), "unresolvable export path "+export.Path, err)
		}
	}
	return nil
}

// Categories returns the logging categories of the container.
func (c *ContainmentModel) Categories() *entities.CategoriesDirective {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.categories
}

// SetCategories overlays logging categories.
func (c *ContainmentModel) SetCategories(categories *entities.CategoriesDirective) {
	c.mu.Lock()
	c.categories = merger.MergeCategories(c.categories, categories)
	merged := c.categories
	c.mu.Unlock()

	if c.env.Logging != nil {
		c.env.Logging.AddCategories(c.Path(), merged)
	}
}

// String returns the string representation
func (c *ContainmentModel) String() string {
	return "[containment " + c.Path() + "]"
}

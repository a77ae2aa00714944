package model

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/meta"
	"github.com/reglet-dev/composer/internal/domain/services"
	"github.com/reglet-dev/composer/internal/domain/values"
)

var merger = services.NewConfigurationMerger()

// ComponentModel is the live model of one deployed component.
type ComponentModel struct {
	name      string
	partition string
	parent    *ContainmentModel
	profile   *entities.ComponentProfile
	typ       *meta.Type
	handle    TypeHandle
	logger    *slog.Logger
	homeDir   string
	tempDir   string
	timeout   time.Duration

	context      *ContextModel
	stages       []*StageModel
	dependencies []*DependencyModel

	mu            sync.RWMutex
	resolved      bool
	configuration map[string]any
	parameters    map[string]any
	categories    *entities.CategoriesDirective
	activation    values.ActivationPolicy
	collection    values.CollectionPolicy
}

// newComponentModel builds the model for profile inside parent.
func newComponentModel(parent *ContainmentModel, profile *entities.ComponentProfile) (*ComponentModel, error) {
	env := parent.env
	partition := parent.ChildPartition()
	path := values.QualifiedName(partition, profile.Name)

	if err := profile.Validate(); err != nil {
		return nil, NewModelError(path, "invalid profile", err)
	}

	var handle TypeHandle
	if env.TypeLoader != nil {
		h, err := env.TypeLoader.ResolveImplementation(profile.Classname)
		if err != nil {
			return nil, NewModelError(path, "cannot load implementation "+profile.Classname, err)
		}
		handle = h
	}

	typ, err := parent.Types().Type(profile.Classname)
	if err != nil {
		return nil, NewModelError(path, "no type registered for "+profile.Classname, err)
	}

	timeout, err := typ.DeploymentTimeout(env.DeploymentTimeout)
	if err != nil {
		return nil, NewModelError(path, "invalid deployment timeout", fmt.Errorf("%w: %v", ErrModelRuntime, err))
	}

	if env.Logging != nil && profile.Categories != nil {
		env.Logging.AddCategories(path, profile.Categories)
	}
	logger := env.logger(path)

	c := &ComponentModel{
		name:       profile.Name,
		partition:  partition,
		parent:     parent,
		profile:    profile,
		typ:        typ,
		handle:     handle,
		logger:     logger,
		homeDir:    filepath.Join(parent.homeDir, profile.Name),
		tempDir:    filepath.Join(parent.tempDir, profile.Name),
		timeout:    timeout,
		parameters: merger.MergeParameters(nil, profile.Parameters),
		categories: profile.Categories,
	}
	c.configuration = profile.Configuration
	c.activation = profile.Activation
	if c.activation == values.ActivationUndefined {
		c.activation = c.defaultActivation()
	}
	c.collection = c.effectiveCollection(profile.Collection)

	for _, stage := range typ.Stages {
		sm, err := NewStageModel(logger, partition, stage, profile.Stage(stage.Key))
		if err != nil {
			return nil, err
		}
		c.stages = append(c.stages, sm)
	}

	for _, dep := range typ.Dependencies {
		dm, err := NewDependencyModel(logger, partition, dep, profile.Dependency(dep.Key))
		if err != nil {
			return nil, err
		}
		c.dependencies = append(c.dependencies, dm)
	}

	if len(typ.Context.Entries) > 0 || typ.Context.HasStrategy() || (profile.Context != nil && profile.Context.Strategy != "") {
		cm, err := NewContextModel(logger, path, typ.Context, profile.Context, env.Evaluator, c.systemContext())
		if err != nil {
			return nil, err
		}
		c.context = cm
	}

	return c, nil
}

func (c *ComponentModel) systemContext() map[string]any {
	system := make(map[string]any, len(c.parent.env.System)+4)
	for k, v := range c.parent.env.System {
		system[k] = v
	}
	system[KeyName] = c.name
	system[KeyPartition] = c.partition
	system[KeyHome] = c.homeDir
	system[KeyTemp] = c.tempDir
	return system
}

func (c *ComponentModel) Name() string              { return c.name }
func (c *ComponentModel) Partition() string         { return c.partition }
func (c *ComponentModel) Path() string              { return values.QualifiedName(c.partition, c.name) }
func (c *ComponentModel) Mode() values.Mode         { return c.profile.ProfileMode() }
func (c *ComponentModel) Parent() *ContainmentModel { return c.parent }
func (c *ComponentModel) Logger() *slog.Logger      { return c.logger }

// Type returns the component type.
func (c *ComponentModel) Type() *meta.Type { return c.typ }

// Profile returns the profile the model was built from.
func (c *ComponentModel) Profile() *entities.ComponentProfile { return c.profile }

// Handle returns the implementation handle, nil without a type loader.
func (c *ComponentModel) Handle() TypeHandle { return c.handle }

// HomeDir returns the component working directory.
func (c *ComponentModel) HomeDir() string { return c.homeDir }

// TempDir returns the component temporary directory.
func (c *ComponentModel) TempDir() string { return c.tempDir }

// DeploymentTimeout returns the time allowed to commission the component.
func (c *ComponentModel) DeploymentTimeout() time.Duration { return c.timeout }

// Services lists the services of the component type.
func (c *ComponentModel) Services() []meta.ServiceDescriptor { return c.typ.Services }

// Extensions lists the stages the component type handles.
func (c *ComponentModel) Extensions() []meta.ExtensionDescriptor { return c.typ.Extensions }

// ContextModel returns the context model, or nil when the type needs no context.
func (c *ComponentModel) ContextModel() *ContextModel { return c.context }

// StageModels returns the stage requirements in declaration order.
func (c *ComponentModel) StageModels() []*StageModel { return c.stages }

// DependencyModels returns the dependency requirements in declaration order.
func (c *ComponentModel) DependencyModels() []*DependencyModel { return c.dependencies }

// IsContextDependent reports whether creating the component needs more
// than plain key/value context.
func (c *ComponentModel) IsContextDependent() bool {
	return len(c.stages) > 0 || (c.context != nil && c.context.Strategy() != nil)
}

// IsAssembled reports whether the context strategy, every stage and every
// required dependency have providers.
func (c *ComponentModel) IsAssembled() bool {
	if c.context != nil && !c.context.IsAssembled() {
		return false
	}
	for _, s := range c.stages {
		if !s.IsBound() {
			return false
		}
	}
	for _, d := range c.dependencies {
		if !d.IsBound() && d.Descriptor().IsRequired() {
			return false
		}
	}
	return true
}

// Assemble is satisfied by the assembly engine; a component cannot bind its
// own providers.
func (c *ComponentModel) Assemble() error {
	if c.IsAssembled() {
		return nil
	}
	return NewAssemblyError(c.Path(), "", "component requires the assembly engine", nil)
}

// IsResolved reports whether the assembly engine has visited every
// requirement, optional ones included, since the last Disassemble.
func (c *ComponentModel) IsResolved() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolved
}

// MarkResolved records a completed assembly pass.
func (c *ComponentModel) MarkResolved() {
	c.mu.Lock()
	c.resolved = true
	c.mu.Unlock()
}

// Disassemble clears every provider binding.
func (c *ComponentModel) Disassemble() {
	c.mu.Lock()
	c.resolved = false
	c.mu.Unlock()
	if c.context != nil && c.context.Strategy() != nil {
		c.context.Strategy().Clear()
	}
	for _, s := range c.stages {
		s.Clear()
	}
	for _, d := range c.dependencies {
		d.Clear()
	}
}

// Requirements returns every requirement in assembly order: the context
// strategy, then stages, then dependencies.
func (c *ComponentModel) Requirements() []Requirement {
	var out []Requirement
	if c.context != nil && c.context.Strategy() != nil {
		out = append(out, c.context.Strategy())
	}
	for _, s := range c.stages {
		out = append(out, s)
	}
	for _, d := range c.dependencies {
		out = append(out, d)
	}
	return out
}

// Providers returns the distinct bound providers. Asking an unassembled
// model is an invariant violation.
func (c *ComponentModel) Providers() ([]*ComponentModel, error) {
	if !c.IsAssembled() {
		return nil, fmt.Errorf("%w: model %s is not assembled", ErrModelRuntime, c.Path())
	}
	seen := make(map[*ComponentModel]bool)
	var out []*ComponentModel
	for _, r := range c.Requirements() {
		p := r.Provider()
		if p == nil || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

// Configuration returns the type defaults merged with the profile configuration.
func (c *ComponentModel) Configuration() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return merger.MergeConfiguration(c.typ.Configuration, c.configuration)
}

// SetConfiguration merges cfg over the profile level configuration. Type
// defaults still apply underneath.
func (c *ComponentModel) SetConfiguration(cfg map[string]any) {
	c.mu.Lock()
	c.configuration = merger.MergeConfiguration(c.configuration, cfg)
	c.mu.Unlock()
}

// Parameters returns a copy of the construction parameters.
func (c *ComponentModel) Parameters() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return merger.MergeParameters(nil, c.parameters)
}

// SetParameters merges params over the current parameters. A nil value
// removes a key.
func (c *ComponentModel) SetParameters(params map[string]any) {
	c.mu.Lock()
	c.parameters = merger.MergeParameters(c.parameters, params)
	c.mu.Unlock()
}

// Categories returns the logging categories.
func (c *ComponentModel) Categories() *entities.CategoriesDirective {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.categories
}

// SetCategories overlays logging categories.
func (c *ComponentModel) SetCategories(categories *entities.CategoriesDirective) {
	c.mu.Lock()
	c.categories = merger.MergeCategories(c.categories, categories)
	merged := c.categories
	c.mu.Unlock()

	if c.parent.env.Logging != nil {
		c.parent.env.Logging.AddCategories(c.Path(), merged)
	}
}

// ActivationPolicy returns the activation policy.
func (c *ComponentModel) ActivationPolicy() values.ActivationPolicy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activation
}

// SetActivationPolicy sets the activation policy.
func (c *ComponentModel) SetActivationPolicy(p values.ActivationPolicy) {
	c.mu.Lock()
	c.activation = p
	c.mu.Unlock()
}

// RevertActivationPolicy restores the default: startup for explicit models,
// lazy otherwise.
func (c *ComponentModel) RevertActivationPolicy() {
	c.SetActivationPolicy(c.defaultActivation())
}

func (c *ComponentModel) defaultActivation() values.ActivationPolicy {
	if c.Mode() == values.ModeExplicit {
		return values.ActivationStartup
	}
	return values.ActivationLazy
}

// CollectionPolicy returns the collection policy.
func (c *ComponentModel) CollectionPolicy() values.CollectionPolicy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collection
}

// SetCollectionPolicy sets the collection policy. Policies below the type
// minimum are ignored.
func (c *ComponentModel) SetCollectionPolicy(p values.CollectionPolicy) {
	effective := c.effectiveCollection(p)
	c.mu.Lock()
	c.collection = effective
	c.mu.Unlock()
}

func (c *ComponentModel) effectiveCollection(p values.CollectionPolicy) values.CollectionPolicy {
	minimum := c.typ.Info.Collection
	if p == values.CollectionUndefined {
		if minimum == values.CollectionUndefined {
			return values.CollectionDemand
		}
		return minimum
	}
	if p.IsLowerThan(minimum) {
		c.logger.Warn("collection policy below type minimum ignored",
			"requested", p.String(), "minimum", minimum.String())
		return minimum
	}
	return p
}

// String returns the string representation
func (c *ComponentModel) String() string {
	return "[component " + c.Path() + "]"
}

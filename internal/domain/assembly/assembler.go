// Package assembly binds every requirement of the components in a
// containment tree to a provider.
//
// Provider precedence for one requirement:
//  1. an explicit source path, never filtered or ranked
//  2. live candidates of the enclosing scopes, ranked by mode
//  3. packaged profiles of matching types, ranked by mode and materialized
//  4. failure
package assembly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reglet-dev/composer/internal/domain/model"
)

// Options configures an Assembler.
type Options struct {
	Logger   *slog.Logger
	Observer Observer
}

// Assembler drives components to the assembled state. Assembly of one
// subtree is sequential; callers serialize concurrent assembly of the same
// subtree.
type Assembler struct {
	logger   *slog.Logger
	observer Observer
}

// New creates an Assembler.
func New(opts Options) *Assembler {
	a := &Assembler{logger: opts.Logger, observer: opts.Observer}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.observer == nil {
		a.observer = nopObserver{}
	}
	return a
}

// chain is the set of components currently being assembled by one call.
type chain struct {
	order []model.Model
	set   map[model.Model]bool
}

func newChain() *chain {
	return &chain{set: make(map[model.Model]bool)}
}

func (c *chain) push(m model.Model) {
	c.order = append(c.order, m)
	c.set[m] = true
}

func (c *chain) pop() {
	last := c.order[len(c.order)-1]
	c.order = c.order[:len(c.order)-1]
	delete(c.set, last)
}

func (c *chain) cycle(m model.Model) *CycleError {
	var paths []string
	start := 0
	for i, o := range c.order {
		if o == m {
			start = i
			break
		}
	}
	for _, o := range c.order[start:] {
		paths = append(paths, o.Path())
	}
	return &CycleError{Chain: append(paths, m.Path())}
}

// AssembleModel binds every unresolved requirement of m, recursively
// assembling each provider first. Assembling an assembled model is a no-op.
func (a *Assembler) AssembleModel(ctx context.Context, m model.Model) error {
	return a.assemble(ctx, m, newChain())
}

// AssembleTree assembles every component of the subtree rooted at c in
// registration order, stopping at the first failure.
func (a *Assembler) AssembleTree(ctx context.Context, c *model.ContainmentModel) error {
	for _, comp := range c.Components() {
		if err := a.AssembleModel(ctx, comp); err != nil {
			return err
		}
	}
	return c.Assemble()
}

func (a *Assembler) assemble(ctx context.Context, m model.Model, ch *chain) error {
	comp, ok := m.(*model.ComponentModel)
	if !ok {
		if m.IsAssembled() {
			return nil
		}
		return m.Assemble()
	}

	// IsAssembled ignores optional dependencies, so it cannot tell whether
	// they were ever looked up.
	if comp.IsResolved() {
		return nil
	}
	if ch.set[m] {
		cycle := ch.cycle(m)
		return model.NewAssemblyError(m.Path(), "", "cyclic dependency", cycle)
	}

	ch.push(comp)
	defer ch.pop()

	// Observers hear about the model the caller asked for; providers
	// assembled on its behalf are part of its outcome.
	top := len(ch.order) == 1

	start := time.Now()
	if err := a.assembleComponent(ctx, comp, ch); err != nil {
		if top {
			a.observer.AssemblyFailed(comp, err)
		}
		return err
	}
	comp.MarkResolved()
	if top {
		a.observer.ModelAssembled(comp, time.Since(start))
	}
	comp.Logger().Debug("component assembled", "elapsed", time.Since(start))
	return nil
}

func (a *Assembler) assembleComponent(ctx context.Context, comp *model.ComponentModel, ch *chain) error {
	var bound []model.Requirement
	rollback := func() {
		for _, r := range bound {
			r.Clear()
		}
	}

	for _, req := range comp.Requirements() {
		if req.IsBound() {
			continue
		}

		provider, source, err := a.findProvider(ctx, comp, req, ch)
		if err != nil {
			if tolerable(req, err) {
				comp.Logger().Info("optional dependency left unbound", "key", req.Key(), "error", err)
				continue
			}
			rollback()
			return model.NewAssemblyError(comp.Path(), req.Key(), phaseFailure(comp, req), err)
		}

		if err := req.SetProvider(provider); err != nil {
			rollback()
			return model.NewAssemblyError(comp.Path(), req.Key(), "cannot bind provider", err)
		}
		bound = append(bound, req)
		a.observer.ProviderBound(comp, req, provider, source)
		comp.Logger().Debug("provider bound",
			"key", req.Key(),
			"provider", provider.Path(),
			"source", string(source))
	}
	return nil
}

// tolerable reports whether a failure to bind req can be ignored. Optional
// dependencies may stay unbound unless the failure is a cycle.
func tolerable(req model.Requirement, err error) bool {
	dep, ok := req.(*model.DependencyModel)
	if !ok || dep.Descriptor().IsRequired() {
		return false
	}
	return !errors.Is(err, ErrCycle)
}

func phaseFailure(comp *model.ComponentModel, req model.Requirement) string {
	switch req.(type) {
	case *model.DependencyModel:
		return "service provider establishment failure"
	case *model.StageModel:
		if cm := comp.ContextModel(); cm != nil && cm.Strategy() == req {
			return "context phase handler establishment failure"
		}
		return "extension handler establishment failure"
	default:
		return "provider establishment failure"
	}
}

func (a *Assembler) findProvider(
	ctx context.Context,
	comp *model.ComponentModel,
	req model.Requirement,
	ch *chain,
) (*model.ComponentModel, Source, error) {
	container := comp.Parent()

	if path := req.Path(); path != "" {
		target, err := container.GetModel(path)
		if err != nil {
			return nil, "", model.NewAssemblyError(comp.Path(), req.Key(),
				fmt.Sprintf("could not locate a model at the address [%s]", path), err)
		}
		provider, err := a.providerOf(ctx, target, req, ch)
		if err != nil {
			return nil, "", err
		}
		return provider, SourceExplicit, nil
	}

	accept := func(m model.Model) bool {
		return m != model.Model(comp) && req.Accepts(m)
	}
	candidates := container.Repository().CandidateProviders(accept)
	if selected, ok := model.SelectModel(candidates, req); ok {
		provider, err := a.providerOf(ctx, selected, req, ch)
		if err != nil {
			return nil, "", err
		}
		return provider, SourceCandidate, nil
	}

	profile, err := container.PackagedProfile(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", model.ErrModelRuntime, err)
	}
	if profile == nil {
		return nil, "", model.NewAssemblyError(comp.Path(), req.Key(), notFoundMessage(req), nil)
	}

	created, err := container.AddModel(ctx, profile)
	if err != nil {
		return nil, "", model.NewAssemblyError(comp.Path(), req.Key(),
			fmt.Sprintf("nested model failure while adding model for the profile %q", profile.Name), err)
	}
	provider, ok := created.(*model.ComponentModel)
	if !ok {
		return nil, "", fmt.Errorf("%w: packaged profile %q produced %T", model.ErrModelRuntime, profile.Name, created)
	}
	if err := a.assemble(ctx, provider, ch); err != nil {
		if _, rmErr := container.RemoveModel(provider.Name()); rmErr != nil {
			a.logger.Warn("cannot remove failed model", "path", provider.Path(), "error", rmErr)
		}
		return nil, "", model.NewAssemblyError(comp.Path(), req.Key(),
			fmt.Sprintf("nested assembly failure while constructing model for the profile %q", profile.Name), err)
	}
	comp.Logger().Info("provider synthesized from packaged profile",
		"key", req.Key(), "profile", profile.Name, "provider", provider.Path())
	return provider, SourcePackaged, nil
}

// providerOf resolves the component behind target and assembles it.
// Containers provide services through their exports.
func (a *Assembler) providerOf(
	ctx context.Context,
	target model.Model,
	req model.Requirement,
	ch *chain,
) (*model.ComponentModel, error) {
	var provider *model.ComponentModel
	switch t := target.(type) {
	case *model.ComponentModel:
		provider = t
	case *model.ContainmentModel:
		dep, ok := req.(*model.DependencyModel)
		if !ok {
			return nil, fmt.Errorf("container %s cannot handle stage %s", t.Path(), req.Key())
		}
		p, err := t.ExportProvider(dep)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		return nil, fmt.Errorf("%w: unsupported model %T", model.ErrModelRuntime, target)
	}

	if err := a.assemble(ctx, provider, ch); err != nil {
		return nil, err
	}
	return provider, nil
}

func notFoundMessage(req model.Requirement) string {
	if _, ok := req.(*model.StageModel); ok {
		return "unable to locate an extension provider for the stage"
	}
	return "unable to locate a service provider for the dependency"
}

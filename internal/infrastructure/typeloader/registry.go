// Package typeloader resolves component classnames to Go factories. It is
// the implementation side of the type catalog: scanned descriptors say what
// a type needs and offers, registered factories create its instances.
package typeloader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/domain/capabilities"
	"github.com/reglet-dev/composer/internal/domain/catalog"
	"github.com/reglet-dev/composer/internal/domain/model"
)

// Deployment is everything a factory receives to create one instance.
type Deployment struct {
	Path          string
	Configuration map[string]any
	Parameters    map[string]any
	Context       map[string]any
	// Dependencies holds the provider instances keyed by dependency key.
	Dependencies map[string]any
	// Stages holds the stage handler instances keyed by stage key.
	Stages  map[string]any
	Logger  *slog.Logger
	HomeDir string
	TempDir string
}

// Factory creates a component instance.
type Factory func(ctx context.Context, d Deployment) (any, error)

// Starter is implemented by instances that must be started after creation.
type Starter interface {
	Start(ctx context.Context) error
}

// Stopper is implemented by instances holding resources.
type Stopper interface {
	Stop(ctx context.Context) error
}

// Handle is the loaded implementation of one classname.
type Handle struct {
	classname string
	factory   Factory
}

// Classname returns the implementation classname.
func (h *Handle) Classname() string { return h.classname }

// Factory returns the registered factory, or nil when none was registered.
func (h *Handle) Factory() Factory { return h.factory }

// Registry maps classnames to factories. In strict mode resolving an
// unregistered classname fails; otherwise a handle without a factory is
// returned so trees can be assembled before implementations exist.
type Registry struct {
	strict     bool
	logger     *slog.Logger
	extractors *capabilities.Registry

	mu        sync.RWMutex
	factories map[string]Factory
}

var (
	_ model.TypeLoader         = (*Registry)(nil)
	_ ports.ClassLoaderFactory = (*Registry)(nil)
)

// NewRegistry creates an empty registry.
func NewRegistry(strict bool, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		strict:     strict,
		logger:     logger,
		extractors: capabilities.NewRegistry(),
		factories:  make(map[string]Factory),
	}
}

// Register adds or replaces the factory of classname. extractor may be nil.
func (r *Registry) Register(classname string, factory Factory, extractor capabilities.Extractor) {
	r.mu.Lock()
	r.factories[classname] = factory
	r.mu.Unlock()
	if extractor != nil {
		r.extractors.Register(classname, extractor)
	}
}

// Capabilities returns the capability extractors of registered implementations.
func (r *Registry) Capabilities() *capabilities.Registry {
	return r.extractors
}

// ResolveImplementation returns the handle of classname.
func (r *Registry) ResolveImplementation(classname string) (model.TypeHandle, error) {
	r.mu.RLock()
	factory, ok := r.factories[classname]
	r.mu.RUnlock()

	if !ok {
		if r.strict {
			return nil, fmt.Errorf("no implementation registered for %s", classname)
		}
		r.logger.Debug("no implementation registered", "classname", classname)
	}
	return &Handle{classname: classname, factory: factory}, nil
}

// NewClassLoaderModel builds the root type catalogs from scanned descriptors.
func (r *Registry) NewClassLoaderModel(scanned *ports.Catalog) (ports.ClassLoaderModel, error) {
	types, err := catalog.NewTypeRepository(nil, scanned.Types, r.logger)
	if err != nil {
		return nil, err
	}
	return &ClassLoaderModel{
		loader:   r,
		types:    types,
		services: catalog.NewServiceRepository(nil, scanned.Services),
	}, nil
}

// ClassLoaderModel is the type system of one scope.
type ClassLoaderModel struct {
	loader   *Registry
	types    *catalog.TypeRepository
	services *catalog.ServiceRepository
}

func (c *ClassLoaderModel) TypeLoader() model.TypeLoader         { return c.loader }
func (c *ClassLoaderModel) Types() *catalog.TypeRepository       { return c.types }
func (c *ClassLoaderModel) Services() *catalog.ServiceRepository { return c.services }

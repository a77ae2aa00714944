package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/domain/capabilities"
	"github.com/reglet-dev/composer/internal/domain/catalog"
	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/meta"
	"github.com/reglet-dev/composer/internal/domain/model"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Scan(ctx context.Context, roots []string) (*ports.Catalog, error) {
	args := m.Called(ctx, roots)
	if c := args.Get(0); c != nil {
		return c.(*ports.Catalog), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockProfileLoader struct {
	mock.Mock
}

func (m *MockProfileLoader) LoadContainment(ctx context.Context, path string) (*entities.ContainmentProfile, error) {
	args := m.Called(ctx, path)
	if p := args.Get(0); p != nil {
		return p.(*entities.ContainmentProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileLoader) LoadTargets(ctx context.Context, path string) ([]entities.TargetDirective, error) {
	args := m.Called(ctx, path)
	if t := args.Get(0); t != nil {
		return t.([]entities.TargetDirective), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockRuntime struct {
	mock.Mock
}

func (m *MockRuntime) Commission(ctx context.Context, root *model.ContainmentModel) error {
	return m.Called(ctx, root).Error(0)
}

func (m *MockRuntime) Decommission(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRuntime) Resolve(ctx context.Context, path string) (any, error) {
	args := m.Called(ctx, path)
	return args.Get(0), args.Error(1)
}

func (m *MockRuntime) Release(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

// repoClassLoaders builds catalogs straight from the scanned entries.
type repoClassLoaders struct{}

type repoClassLoader struct {
	types    *catalog.TypeRepository
	services *catalog.ServiceRepository
}

func (repoClassLoaders) NewClassLoaderModel(scanned *ports.Catalog) (ports.ClassLoaderModel, error) {
	types, err := catalog.NewTypeRepository(nil, scanned.Types, discardLogger)
	if err != nil {
		return nil, err
	}
	return &repoClassLoader{types: types, services: catalog.NewServiceRepository(nil, scanned.Services)}, nil
}

func (c *repoClassLoader) TypeLoader() model.TypeLoader         { return nil }
func (c *repoClassLoader) Types() *catalog.TypeRepository       { return c.types }
func (c *repoClassLoader) Services() *catalog.ServiceRepository { return c.services }

func typeEntry(name, service string, deps ...meta.DependencyDescriptor) catalog.Entry {
	t := &meta.Type{
		Info:         meta.InfoDescriptor{Name: name, Classname: "acme." + name, Version: "1.0.0"},
		Dependencies: deps,
	}
	if service != "" {
		t.Services = []meta.ServiceDescriptor{{Reference: meta.ReferenceDescriptor{Classname: service, Version: "1.0.0"}}}
	}
	return catalog.Entry{Type: t}
}

func dependsOn(key, service string) meta.DependencyDescriptor {
	return meta.DependencyDescriptor{Key: key, Reference: meta.ReferenceDescriptor{Classname: service}}
}

func componentProfile(name, classname string) *entities.ComponentProfile {
	return &entities.ComponentProfile{ProfileMeta: entities.ProfileMeta{Name: name}, Classname: classname}
}

func containmentProfile(name string, children ...entities.Profile) *entities.ContainmentProfile {
	return &entities.ContainmentProfile{ProfileMeta: entities.ProfileMeta{Name: name}, Profiles: children}
}

type MockPrompter struct {
	mock.Mock
}

func (m *MockPrompter) IsInteractive() bool {
	return m.Called().Bool(0)
}

func (m *MockPrompter) PromptForCapability(path string, capability capabilities.Capability) (bool, bool, error) {
	args := m.Called(path, capability)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

type MockGrantStore struct {
	mock.Mock
}

func (m *MockGrantStore) Save(source string, caps []capabilities.Capability) error {
	return m.Called(source, caps).Error(0)
}

func (m *MockGrantStore) Location() string {
	return m.Called().String(0)
}

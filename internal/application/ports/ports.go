// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import (
	"context"
	"io"

	"github.com/reglet-dev/composer/internal/application/dto"
	"github.com/reglet-dev/composer/internal/domain/capabilities"
	"github.com/reglet-dev/composer/internal/domain/catalog"
	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/meta"
	"github.com/reglet-dev/composer/internal/domain/model"
)

// Catalog is the result of scanning type directories.
type Catalog struct {
	Types    []catalog.Entry
	Services []meta.ServiceDescriptor
}

// TypeScanner discovers component types and service definitions.
type TypeScanner interface {
	Scan(ctx context.Context, roots []string) (*Catalog, error)
}

// ProfileLoader loads containment profiles from storage.
type ProfileLoader interface {
	LoadContainment(ctx context.Context, path string) (*entities.ContainmentProfile, error)
	// LoadTargets loads a standalone file of target overrides.
	LoadTargets(ctx context.Context, path string) ([]entities.TargetDirective, error)
}

// ArtifactRepository fetches versioned block artifacts.
type ArtifactRepository interface {
	Fetch(ctx context.Context, resource entities.ResourceDirective) (io.ReadCloser, error)
}

// ClassLoaderModel bundles what the model tree needs from the type system of
// one scope: implementation loading plus the static catalogs.
type ClassLoaderModel interface {
	TypeLoader() model.TypeLoader
	Types() *catalog.TypeRepository
	Services() *catalog.ServiceRepository
}

// ClassLoaderFactory builds the class loader model of the root scope.
type ClassLoaderFactory interface {
	NewClassLoaderModel(scanned *Catalog) (ClassLoaderModel, error)
}

// Runtime brings assembled components up and down. Implementations commission
// providers before their consumers and decommission in reverse.
type Runtime interface {
	Commission(ctx context.Context, root *model.ContainmentModel) error
	Decommission(ctx context.Context) error
	// Resolve returns the live instance of the component at path,
	// commissioning it first when it is lazily activated.
	Resolve(ctx context.Context, path string) (any, error)
	Release(ctx context.Context, path string) error
}

// SecurityGate decides whether a component may be commissioned with the
// capabilities it requires.
type SecurityGate interface {
	Authorize(path string, required []capabilities.Capability) error
}

// CapabilityPrompter asks an operator to grant capabilities a component was
// not granted by configuration.
type CapabilityPrompter interface {
	IsInteractive() bool
	PromptForCapability(path string, capability capabilities.Capability) (granted bool, always bool, err error)
}

// GrantStore persists grants the operator approved permanently.
type GrantStore interface {
	Save(source string, caps []capabilities.Capability) error
	Location() string
}

// OutputFormatter formats assembly reports.
type OutputFormatter interface {
	Format(report *dto.AssemblyReport) error
}

// FormatterOptions configures output formatters.
type FormatterOptions struct {
	Indent      bool
	Color       bool
	ProfilePath string
	Version     string
}

// OutputFormatterFactory creates formatters by format name.
type OutputFormatterFactory interface {
	Create(format string, writer io.Writer, options FormatterOptions) (OutputFormatter, error)
	SupportedFormats() []string
}

// Package model implements the live containment tree: containers, components
// and the dependency, stage and context requirements of each component.
package model

import (
	"context"
	"log/slog"
	"time"

	"github.com/reglet-dev/composer/internal/domain/catalog"
	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/meta"
	"github.com/reglet-dev/composer/internal/domain/services"
	"github.com/reglet-dev/composer/internal/domain/values"
)

// Model is one live node of the containment tree.
type Model interface {
	// Name is the model name, unique within its parent.
	Name() string
	// Partition is the partition path of the enclosing container.
	Partition() string
	// Path is the qualified name: partition plus name.
	Path() string
	Mode() values.Mode
	Parent() *ContainmentModel
	Logger() *slog.Logger

	// Services lists the services the model can provide to dependencies.
	Services() []meta.ServiceDescriptor
	// Extensions lists the stages the model can handle.
	Extensions() []meta.ExtensionDescriptor

	IsAssembled() bool
	Assemble() error
	Disassemble()
}

// TypeHandle is an opaque reference to a loaded component implementation.
type TypeHandle interface {
	Classname() string
}

// TypeLoader resolves implementation names to handles.
type TypeLoader interface {
	ResolveImplementation(classname string) (TypeHandle, error)
}

// LoggingManager hands out hierarchical loggers keyed by model path.
type LoggingManager interface {
	AddCategories(path string, categories *entities.CategoriesDirective)
	Logger(path string) *slog.Logger
}

// BlockResolver loads containment profiles referenced by include and
// composition directives.
type BlockResolver interface {
	Include(ctx context.Context, path string) (*entities.ContainmentProfile, error)
	Compose(ctx context.Context, resource entities.ResourceDirective) (*entities.ContainmentProfile, error)
}

// Environment is the shared context a containment tree is built in.
type Environment struct {
	Logger            *slog.Logger
	Logging           LoggingManager
	TypeLoader        TypeLoader
	Types             *catalog.TypeRepository
	Services          *catalog.ServiceRepository
	Blocks            BlockResolver
	Evaluator         *services.EntryEvaluator
	System            map[string]any
	HomeDir           string
	TempDir           string
	DeploymentTimeout time.Duration
}

func (e *Environment) logger(path string) *slog.Logger {
	if e.Logging != nil {
		return e.Logging.Logger(path)
	}
	base := e.Logger
	if base == nil {
		base = slog.Default()
	}
	return base.With("model", path)
}

// System context keys available to every component.
const (
	SystemKeyPrefix    = "urn:composer:"
	KeyName            = "urn:composer:name"
	KeyPartition       = "urn:composer:partition"
	KeyHome            = "urn:composer:home"
	KeyTemp            = "urn:composer:temp"
	KeyDeploymentCount = "urn:composer:deployment.count"
)

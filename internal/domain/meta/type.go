package meta

import (
	"fmt"
	"strconv"
	"time"

	"github.com/reglet-dev/composer/internal/domain/capabilities"
	"github.com/reglet-dev/composer/internal/domain/values"
)

// DeploymentTimeoutKey is the info attribute holding a deployment timeout in milliseconds.
const DeploymentTimeoutKey = "urn:composer:deployment.timeout"

// InfoDescriptor carries the identity and policies of a component type.
type InfoDescriptor struct {
	Name       string
	Classname  string
	Version    string
	Lifestyle  string
	Collection values.CollectionPolicy
	Attributes Attributes
}

// CategoryDescriptor declares a logging category a component type writes to.
type CategoryDescriptor struct {
	Name     string
	Priority string
}

// Type is the immutable static contract of one component implementation.
// A Type is created once when its implementation is scanned and shared by
// every profile that instantiates it.
type Type struct {
	Info          InfoDescriptor
	Services      []ServiceDescriptor
	Dependencies  []DependencyDescriptor
	Stages        []StageDescriptor
	Extensions    []ExtensionDescriptor
	Context       ContextDescriptor
	Categories    []CategoryDescriptor
	Configuration map[string]any
	Parameters    map[string]string
	// Capabilities lists what the implementation needs regardless of
	// configuration. The runtime checks them against the grant table.
	Capabilities []capabilities.Capability
}

// Name returns the type name, falling back to the classname.
func (t *Type) Name() string {
	if t.Info.Name != "" {
		return t.Info.Name
	}
	return t.Info.Classname
}

// Classname returns the implementation classname.
func (t *Type) Classname() string {
	return t.Info.Classname
}

// Service returns the first service satisfying the requirement reference.
func (t *Type) Service(required ReferenceDescriptor) (ServiceDescriptor, bool) {
	for _, s := range t.Services {
		if required.Satisfies(s.Reference) {
			return s, true
		}
	}
	return ServiceDescriptor{}, false
}

// Dependency returns the dependency declared under key.
func (t *Type) Dependency(key string) (DependencyDescriptor, bool) {
	for _, d := range t.Dependencies {
		if d.Key == key {
			return d, true
		}
	}
	return DependencyDescriptor{}, false
}

// Stage returns the stage declared under key.
func (t *Type) Stage(key string) (StageDescriptor, bool) {
	for _, s := range t.Stages {
		if s.Key == key {
			return s, true
		}
	}
	return StageDescriptor{}, false
}

// Extension returns the extension handling the stage key.
func (t *Type) Extension(key string) (ExtensionDescriptor, bool) {
	for _, e := range t.Extensions {
		if e.Key == key {
			return e, true
		}
	}
	return ExtensionDescriptor{}, false
}

// ProvidesService reports whether the type offers a service satisfying dep.
func (t *Type) ProvidesService(dep DependencyDescriptor) bool {
	_, ok := t.Service(dep.Reference)
	return ok
}

// HandlesStage reports whether the type offers an extension for stage.
func (t *Type) HandlesStage(stage StageDescriptor) bool {
	_, ok := t.Extension(stage.Key)
	return ok
}

// DeploymentTimeout returns the per-type deployment timeout declared through
// DeploymentTimeoutKey, or fallback when the attribute is absent.
func (t *Type) DeploymentTimeout(fallback time.Duration) (time.Duration, error) {
	raw, ok := t.Info.Attributes.Get(DeploymentTimeoutKey)
	if !ok || raw == "" {
		return fallback, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("type %s: invalid %s value %q", t.Name(), DeploymentTimeoutKey, raw)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// String returns the string representation
func (t *Type) String() string {
	return fmt.Sprintf("[%s]", t.Name())
}

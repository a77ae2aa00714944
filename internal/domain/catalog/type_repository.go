// Package catalog provides the static, parent-chained catalogs of component
// types and service definitions visible from one containment scope.
package catalog

import (
	"fmt"
	"log/slog"

	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/meta"
	"github.com/reglet-dev/composer/internal/domain/values"
)

// Entry is one scanned component type plus the profiles packaged with it.
type Entry struct {
	Type     *meta.Type
	Profiles []*entities.ComponentProfile
}

// TypeRepository is an immutable catalog of component types.
// Lookups by classname consult the parent first; candidate lookups scan
// locally and append parent results.
type TypeRepository struct {
	parent   *TypeRepository
	logger   *slog.Logger
	order    []string
	types    map[string]*meta.Type
	packages map[string]entities.ProfilePackage
}

// NewTypeRepository builds a repository over entries. The profile package of
// every type is computed here; a type without packaged profiles gets a single
// implicit profile named after the type.
func NewTypeRepository(parent *TypeRepository, entries []Entry, logger *slog.Logger) (*TypeRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &TypeRepository{
		parent:   parent,
		logger:   logger,
		types:    make(map[string]*meta.Type, len(entries)),
		packages: make(map[string]entities.ProfilePackage, len(entries)),
	}

	for _, e := range entries {
		if e.Type == nil {
			return nil, fmt.Errorf("type repository: nil type")
		}
		classname := e.Type.Classname()
		if classname == "" {
			return nil, fmt.Errorf("type repository: type %q has no classname", e.Type.Name())
		}
		if _, dup := r.types[classname]; dup {
			return nil, fmt.Errorf("type repository: duplicate type %s", classname)
		}

		pkg, err := buildPackage(e)
		if err != nil {
			return nil, err
		}

		r.order = append(r.order, classname)
		r.types[classname] = e.Type
		r.packages[classname] = pkg

		logger.Debug("registered type", "classname", classname, "profiles", len(pkg.Profiles))
	}

	return r, nil
}

func buildPackage(e Entry) (entities.ProfilePackage, error) {
	classname := e.Type.Classname()
	pkg := entities.ProfilePackage{Classname: classname}

	if len(e.Profiles) == 0 {
		pkg.Profiles = []*entities.ComponentProfile{{
			ProfileMeta: entities.ProfileMeta{Name: e.Type.Name(), Mode: values.ModeImplicit},
			Classname:   classname,
		}}
		return pkg, nil
	}

	for _, p := range e.Profiles {
		if p == nil {
			continue
		}
		profile := *p
		if profile.Classname == "" {
			profile.Classname = classname
		}
		if profile.Classname != classname {
			return pkg, fmt.Errorf("type %s: packaged profile %q names foreign class %s", classname, p.Name, p.Classname)
		}
		if !profile.Mode.IsValid() {
			profile.Mode = values.ModePackaged
		}
		if err := profile.Validate(); err != nil {
			return pkg, fmt.Errorf("type %s: %w", classname, err)
		}
		pkg.Profiles = append(pkg.Profiles, &profile)
	}
	return pkg, nil
}

// Parent returns the enclosing repository, or nil at the root.
func (r *TypeRepository) Parent() *TypeRepository {
	return r.parent
}

// Types returns the local types followed, when inherited is set, by the
// types of every ancestor.
func (r *TypeRepository) Types(inherited bool) []*meta.Type {
	out := make([]*meta.Type, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, r.types[c])
	}
	if inherited && r.parent != nil {
		out = append(out, r.parent.Types(true)...)
	}
	return out
}

// Type returns the type registered for classname. Ancestors are consulted
// before the local catalog.
func (r *TypeRepository) Type(classname string) (*meta.Type, error) {
	if r.parent != nil {
		if t, err := r.parent.Type(classname); err == nil {
			return t, nil
		}
	}
	if t, ok := r.types[classname]; ok {
		return t, nil
	}
	return nil, &TypeUnknownError{Classname: classname}
}

// TypesForDependency returns the types providing a service that satisfies
// dep, local types first.
func (r *TypeRepository) TypesForDependency(dep meta.DependencyDescriptor) []*meta.Type {
	var out []*meta.Type
	for _, t := range r.Types(false) {
		if t.ProvidesService(dep) {
			out = append(out, t)
		}
	}
	if r.parent != nil {
		out = append(out, r.parent.TypesForDependency(dep)...)
	}
	return out
}

// TypesForStage returns the types with an extension handling stage, local types first.
func (r *TypeRepository) TypesForStage(stage meta.StageDescriptor) []*meta.Type {
	var out []*meta.Type
	for _, t := range r.Types(false) {
		if t.HandlesStage(stage) {
			out = append(out, t)
		}
	}
	if r.parent != nil {
		out = append(out, r.parent.TypesForStage(stage)...)
	}
	return out
}

// Profiles returns the packaged profiles of t from the nearest repository
// that registered it.
func (r *TypeRepository) Profiles(t *meta.Type) ([]*entities.ComponentProfile, error) {
	if pkg, ok := r.packages[t.Classname()]; ok {
		return pkg.Profiles, nil
	}
	if r.parent != nil {
		return r.parent.Profiles(t)
	}
	return nil, &TypeUnknownError{Classname: t.Classname()}
}

// Profile returns the packaged profile of t named "<type-name>-<key>".
func (r *TypeRepository) Profile(t *meta.Type, key string) (*entities.ComponentProfile, error) {
	profiles, err := r.Profiles(t)
	if err != nil {
		return nil, err
	}
	name := t.Name() + "-" + key
	for _, p := range profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, &ProfileUnknownError{Type: t.Name(), Key: key}
}

// ProfilesFor collects the packaged profiles of every type in order.
// All types are expected to be known; a miss is an illegal state.
func (r *TypeRepository) ProfilesFor(types []*meta.Type) ([]*entities.ComponentProfile, error) {
	var out []*entities.ComponentProfile
	for _, t := range types {
		profiles, err := r.Profiles(t)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIllegalState, err)
		}
		out = append(out, profiles...)
	}
	return out, nil
}

package model

import "github.com/reglet-dev/composer/internal/domain/meta"

// Requirement is an unresolved need of a component that assembly binds to
// a provider: a dependency, a stage or a context strategy.
type Requirement interface {
	Key() string
	// Path is the explicit provider path, "" when the provider is searched for.
	Path() string
	Accepts(m Model) bool
	AcceptsType(t *meta.Type) bool

	Provider() *ComponentModel
	SetProvider(p *ComponentModel) error
	IsBound() bool
	Clear()
}

var (
	_ Requirement = (*DependencyModel)(nil)
	_ Requirement = (*StageModel)(nil)
)

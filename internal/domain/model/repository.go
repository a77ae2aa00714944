package model

import (
	"fmt"
	"sync"
)

// Repository is the registry of live models local to one containment scope,
// chained to the repository of the enclosing scope.
type Repository struct {
	parent *Repository

	mu     sync.RWMutex
	order  []string
	models map[string]Model
}

// NewRepository creates an empty repository chained to parent.
func NewRepository(parent *Repository) *Repository {
	return &Repository{parent: parent, models: make(map[string]Model)}
}

// Parent returns the enclosing repository, or nil at the root.
func (r *Repository) Parent() *Repository {
	return r.parent
}

// Add registers m under its name.
func (r *Repository) Add(m Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[m.Name()]; exists {
		return fmt.Errorf("duplicate model name %q", m.Name())
	}
	r.order = append(r.order, m.Name())
	r.models[m.Name()] = m
	return nil
}

// Remove unregisters the model named name and returns it.
func (r *Repository) Remove(name string) (Model, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.models[name]
	if !ok {
		return nil, false
	}
	delete(r.models, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return m, true
}

// Model returns the local model named name.
func (r *Repository) Model(name string) (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// Models returns the local models in registration order.
func (r *Repository) Models() []Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Model, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.models[n])
	}
	return out
}

// Size returns the number of local models.
func (r *Repository) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Candidate returns the first local model accepted by accept, falling back
// to the enclosing scope only when nothing local matches.
func (r *Repository) Candidate(accept func(Model) bool) (Model, bool) {
	for _, m := range r.Models() {
		if accept(m) {
			return m, true
		}
	}
	if r.parent != nil {
		return r.parent.Candidate(accept)
	}
	return nil, false
}

// CandidateProviders returns every accepted model, local models first
// followed by those of enclosing scopes.
func (r *Repository) CandidateProviders(accept func(Model) bool) []Model {
	var out []Model
	for _, m := range r.Models() {
		if accept(m) {
			out = append(out, m)
		}
	}
	if r.parent != nil {
		out = append(out, r.parent.CandidateProviders(accept)...)
	}
	return out
}

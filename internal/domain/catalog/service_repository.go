package catalog

import "github.com/reglet-dev/composer/internal/domain/meta"

// ServiceRepository is an immutable, parent-chained catalog of the service
// contracts defined in one scope.
type ServiceRepository struct {
	parent   *ServiceRepository
	services []meta.ServiceDescriptor
}

// NewServiceRepository creates a repository over services.
func NewServiceRepository(parent *ServiceRepository, services []meta.ServiceDescriptor) *ServiceRepository {
	s := make([]meta.ServiceDescriptor, len(services))
	copy(s, services)
	return &ServiceRepository{parent: parent, services: s}
}

// Service returns the first service definition satisfying ref, searching
// the local scope before ancestors.
func (r *ServiceRepository) Service(ref meta.ReferenceDescriptor) (meta.ServiceDescriptor, error) {
	for _, s := range r.services {
		if ref.Satisfies(s.Reference) {
			return s, nil
		}
	}
	if r.parent != nil {
		return r.parent.Service(ref)
	}
	return meta.ServiceDescriptor{}, &ServiceUnknownError{Reference: ref.String()}
}

// Services returns local service definitions followed by inherited ones.
func (r *ServiceRepository) Services() []meta.ServiceDescriptor {
	out := make([]meta.ServiceDescriptor, len(r.services))
	copy(out, r.services)
	if r.parent != nil {
		out = append(out, r.parent.Services()...)
	}
	return out
}

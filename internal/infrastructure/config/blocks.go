package config

import (
	"context"
	"fmt"

	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/model"
)

// BlockResolver loads the containment profiles of include and composition
// directives for the model tree.
type BlockResolver struct {
	loader    *ProfileLoader
	artifacts ports.ArtifactRepository
}

var _ model.BlockResolver = (*BlockResolver)(nil)

// NewBlockResolver creates a resolver. artifacts may be nil, in which case
// compositions fail.
func NewBlockResolver(loader *ProfileLoader, artifacts ports.ArtifactRepository) *BlockResolver {
	return &BlockResolver{loader: loader, artifacts: artifacts}
}

// Include loads the profile file at path.
func (r *BlockResolver) Include(ctx context.Context, path string) (*entities.ContainmentProfile, error) {
	return r.loader.LoadContainment(ctx, path)
}

// Compose fetches the profile of resource from the artifact repository.
// Composed blocks may not include local files.
func (r *BlockResolver) Compose(ctx context.Context, resource entities.ResourceDirective) (*entities.ContainmentProfile, error) {
	if r.artifacts == nil {
		return nil, fmt.Errorf("block %s: no artifact repository configured", resource)
	}

	rc, err := r.artifacts.Fetch(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", resource, err)
	}
	defer func() {
		_ = rc.Close() // Best-effort cleanup
	}()

	profile, err := r.loader.LoadContainmentFromReader(rc, "")
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", resource, err)
	}
	if inc := includes(profile); len(inc) > 0 {
		return nil, fmt.Errorf("block %s: composed blocks cannot include %s", resource, inc[0].Path)
	}
	return profile, nil
}

// Package repository stores containment blocks as OCI artifacts. A block is
// a manifest tagged "<id>:<version>" whose single layer holds the profile
// YAML.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/errdef"

	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/domain/entities"
)

// Media types of block artifacts.
const (
	ArtifactType   = "application/vnd.composer.block.v1"
	BlockMediaType = "application/vnd.composer.block.v1+yaml"
	// ResourceType is the resource type accepted by Fetch. An empty type
	// means the same.
	ResourceType = "block"
)

// ErrBlockNotFound is returned when no artifact is tagged with the resource.
var ErrBlockNotFound = errors.New("block not found")

// OCIRepository is an ArtifactRepository over an OCI target, usually an
// image layout directory.
type OCIRepository struct {
	target oras.Target
	logger *slog.Logger
}

var _ ports.ArtifactRepository = (*OCIRepository)(nil)

// NewOCIRepository wraps target.
func NewOCIRepository(target oras.Target, logger *slog.Logger) *OCIRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCIRepository{target: target, logger: logger}
}

// OpenLayout opens or creates the OCI image layout at dir.
func OpenLayout(dir string, logger *slog.Logger) (*OCIRepository, error) {
	store, err := oci.New(dir)
	if err != nil {
		return nil, fmt.Errorf("opening OCI layout %s: %w", dir, err)
	}
	return NewOCIRepository(store, logger), nil
}

func reference(resource entities.ResourceDirective) (string, error) {
	if resource.ID == "" {
		return "", fmt.Errorf("resource id is required")
	}
	if resource.Type != "" && resource.Type != ResourceType {
		return "", fmt.Errorf("resource %s: unsupported type %q", resource, resource.Type)
	}
	return resource.String(), nil
}

// Fetch returns the profile YAML of resource. Content is verified against
// its digest before it is returned.
func (r *OCIRepository) Fetch(ctx context.Context, resource entities.ResourceDirective) (io.ReadCloser, error) {
	ref, err := reference(resource)
	if err != nil {
		return nil, err
	}

	desc, err := r.target.Resolve(ctx, ref)
	if err != nil {
		if errors.Is(err, errdef.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, ref)
		}
		return nil, fmt.Errorf("resolving %s: %w", ref, err)
	}

	raw, err := content.FetchAll(ctx, r.target, desc)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest of %s: %w", ref, err)
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("decoding manifest of %s: %w", ref, err)
	}
	if manifest.ArtifactType != ArtifactType {
		return nil, fmt.Errorf("%s is not a block artifact (type %q)", ref, manifest.ArtifactType)
	}

	for _, layer := range manifest.Layers {
		if layer.MediaType != BlockMediaType {
			continue
		}
		data, err := content.FetchAll(ctx, r.target, layer)
		if err != nil {
			return nil, fmt.Errorf("fetching block %s: %w", ref, err)
		}
		r.logger.Debug("fetched block", "reference", ref, "digest", layer.Digest.String(), "size", layer.Size)
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return nil, fmt.Errorf("%s has no %s layer", ref, BlockMediaType)
}

// Publish stores profile as the block resource and tags it.
func (r *OCIRepository) Publish(ctx context.Context, resource entities.ResourceDirective, profile []byte) (ocispec.Descriptor, error) {
	ref, err := reference(resource)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	layer, err := oras.PushBytes(ctx, r.target, BlockMediaType, profile)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("pushing block %s: %w", ref, err)
	}
	manifest, err := oras.PackManifest(ctx, r.target, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers: []ocispec.Descriptor{layer},
		ManifestAnnotations: map[string]string{
			ocispec.AnnotationTitle:   resource.ID,
			ocispec.AnnotationVersion: resource.Version,
		},
	})
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("packing block %s: %w", ref, err)
	}
	if err := r.target.Tag(ctx, manifest, ref); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("tagging block %s: %w", ref, err)
	}

	r.logger.Info("published block", "reference", ref, "digest", manifest.Digest.String())
	return manifest, nil
}

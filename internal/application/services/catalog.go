package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/reglet-dev/composer/internal/application/dto"
	apperrors "github.com/reglet-dev/composer/internal/application/errors"
	"github.com/reglet-dev/composer/internal/application/ports"
)

// CatalogUseCase lists the component types visible from a set of type paths.
type CatalogUseCase struct {
	scanner      ports.TypeScanner
	classLoaders ports.ClassLoaderFactory
	logger       *slog.Logger
}

// NewCatalogUseCase creates a new catalog use case.
func NewCatalogUseCase(scanner ports.TypeScanner, classLoaders ports.ClassLoaderFactory, logger *slog.Logger) *CatalogUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogUseCase{scanner: scanner, classLoaders: classLoaders, logger: logger}
}

// ListTypes returns one summary per type, sorted by classname.
func (uc *CatalogUseCase) ListTypes(ctx context.Context, req dto.CatalogRequest) ([]dto.TypeSummary, error) {
	scanned, err := uc.scanner.Scan(ctx, req.TypePaths)
	if err != nil {
		return nil, apperrors.NewConfigurationError("types", "failed to scan type descriptors", err)
	}
	classLoader, err := uc.classLoaders.NewClassLoaderModel(scanned)
	if err != nil {
		return nil, apperrors.NewConfigurationError("types", "failed to build type catalog", err)
	}
	repo := classLoader.Types()

	types := repo.Types(true)
	out := make([]dto.TypeSummary, 0, len(types))
	for _, t := range types {
		s := dto.TypeSummary{
			Name:      t.Name(),
			Classname: t.Classname(),
			Version:   t.Info.Version,
			Profiles:  []string{},
		}
		for _, svc := range t.Services {
			s.Services = append(s.Services, svc.Reference.String())
		}
		for _, dep := range t.Dependencies {
			s.Dependencies = append(s.Dependencies, dep.Key)
		}
		for _, st := range t.Stages {
			s.Stages = append(s.Stages, st.Key)
		}
		for _, ext := range t.Extensions {
			s.Extensions = append(s.Extensions, ext.Key)
		}

		profiles, err := repo.Profiles(t)
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			s.Profiles = append(s.Profiles, p.Name)
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Classname < out[j].Classname })
	uc.logger.Debug("listed types", "count", len(out))
	return out, nil
}

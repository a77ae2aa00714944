package config

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/domain/entities"
)

// ProfileLoader handles loading containment profiles from YAML files.
//
// Include Resolution:
//   - Include paths are resolved from the including profile's directory
//   - Included files are loaded eagerly so errors surface before the model
//     tree is built
//   - Circular includes are detected and rejected
//
// Loaded profiles are cached by absolute path; the model tree asks for
// included blocks again while it is being built.
type ProfileLoader struct {
	schemas     *schemas
	substitutor *VariableSubstitutor
	logger      *slog.Logger

	mu    sync.Mutex
	cache map[string]*entities.ContainmentProfile
}

var _ ports.ProfileLoader = (*ProfileLoader)(nil)

// NewProfileLoader creates a new profile loader.
func NewProfileLoader(logger *slog.Logger) (*ProfileLoader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &ProfileLoader{
		schemas:     s,
		substitutor: NewVariableSubstitutor(),
		logger:      logger,
		cache:       make(map[string]*entities.ContainmentProfile),
	}, nil
}

// LoadContainment loads the containment profile at path and every profile
// it includes.
func (l *ProfileLoader) LoadContainment(ctx context.Context, path string) (*entities.ContainmentProfile, error) {
	return l.loadRecursive(ctx, path, nil)
}

func (l *ProfileLoader) loadRecursive(ctx context.Context, path string, stack []string) (*entities.ContainmentProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", path, err)
	}

	if slices.Contains(stack, absPath) {
		chain := append(slices.Clone(stack), absPath)
		return nil, fmt.Errorf("circular include detected: %s", strings.Join(chain, " -> "))
	}

	l.mu.Lock()
	cached, ok := l.cache[absPath]
	l.mu.Unlock()
	if ok {
		return cached, nil
	}

	profile, err := l.loadSingleProfile(absPath)
	if err != nil {
		return nil, err
	}

	stack = append(stack, absPath)
	for _, include := range includes(profile) {
		if _, err := l.loadRecursive(ctx, include.Path, stack); err != nil {
			return nil, fmt.Errorf("loading include %q: %w", include.Name, err)
		}
	}

	l.mu.Lock()
	l.cache[absPath] = profile
	l.mu.Unlock()

	l.logger.Debug("loaded containment profile", "path", absPath, "name", profile.Name)
	return profile, nil
}

// includes collects the include directives of p and its nested containers.
func includes(p *entities.ContainmentProfile) []*entities.BlockIncludeDirective {
	var out []*entities.BlockIncludeDirective
	for _, child := range p.Profiles {
		switch c := child.(type) {
		case *entities.BlockIncludeDirective:
			out = append(out, c)
		case *entities.ContainmentProfile:
			out = append(out, includes(c)...)
		}
	}
	return out
}

// loadSingleProfile loads a single profile from disk without resolving includes.
func (l *ProfileLoader) loadSingleProfile(path string) (*entities.ContainmentProfile, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	// Security: Use os.OpenRoot to prevent path traversal attacks
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile directory: %w", err)
	}
	defer func() {
		_ = root.Close() // Best-effort cleanup
	}()

	file, err := root.Open(base)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer func() {
		_ = file.Close() // Best-effort cleanup
	}()

	profile, err := l.decode(file, dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return profile, nil
}

// LoadContainmentFromReader loads a profile from an io.Reader. Relative
// include paths are resolved against dir; includes are not loaded.
func (l *ProfileLoader) LoadContainmentFromReader(r io.Reader, dir string) (*entities.ContainmentProfile, error) {
	return l.decode(r, dir)
}

func (l *ProfileLoader) decode(r io.Reader, dir string) (*entities.ContainmentProfile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	if err := validateYAML(l.schemas.containment, data); err != nil {
		return nil, err
	}

	var doc containmentDocument
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode profile YAML: %w", err)
	}

	if err := l.substitutor.Substitute(&doc); err != nil {
		return nil, fmt.Errorf("variable substitution failed: %w", err)
	}

	profile, err := converter{dir: dir}.containment(doc.ContainerSpec)
	if err != nil {
		return nil, fmt.Errorf("profile validation failed: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("profile validation failed: %w", err)
	}
	return profile, nil
}

// LoadTargets loads a target override file.
func (l *ProfileLoader) LoadTargets(_ context.Context, path string) ([]entities.TargetDirective, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open targets directory: %w", err)
	}
	defer func() {
		_ = root.Close() // Best-effort cleanup
	}()

	data, err := root.ReadFile(base)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets: %w", err)
	}

	if err := validateYAML(l.schemas.targets, data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var doc targetsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode targets YAML: %w", err)
	}
	return targets(doc.Targets), nil
}

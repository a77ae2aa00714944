// Package scanner discovers component types by walking type directories.
// A type is described by a *.type.yaml file; shared service contracts are
// described by *.service.yaml files.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"golang.org/x/sync/errgroup"

	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/domain/catalog"
	"github.com/reglet-dev/composer/internal/domain/meta"
)

// Descriptor file suffixes.
const (
	TypeSuffix    = ".type.yaml"
	ServiceSuffix = ".service.yaml"
)

// Scanner reads type and service descriptors from directory trees.
type Scanner struct {
	maxConcurrent int
	logger        *slog.Logger
}

var _ ports.TypeScanner = (*Scanner)(nil)

// NewScanner creates a scanner parsing at most maxConcurrent files at once.
// Zero means one per CPU.
func NewScanner(maxConcurrent int, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.NumCPU()
	}
	return &Scanner{maxConcurrent: maxConcurrent, logger: logger}
}

// Scan walks roots and parses every descriptor found. Results keep the order
// files were discovered in: roots in order, files lexically within a root.
func (s *Scanner) Scan(ctx context.Context, roots []string) (*ports.Catalog, error) {
	var typeFiles, serviceFiles []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch {
			case strings.HasSuffix(d.Name(), TypeSuffix):
				typeFiles = append(typeFiles, path)
			case strings.HasSuffix(d.Name(), ServiceSuffix):
				serviceFiles = append(serviceFiles, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	entries := make([]catalog.Entry, len(typeFiles))
	services := make([]meta.ServiceDescriptor, len(serviceFiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for i, path := range typeFiles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry, err := parseType(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			entries[i] = entry
			return nil
		})
	}
	for i, path := range serviceFiles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			svc, err := parseService(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			services[i] = svc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("scanned type descriptors", "roots", roots, "types", len(entries), "services", len(services))
	return &ports.Catalog{Types: entries, Services: services}, nil
}

func readFile(path string) ([]byte, error) {
	// Security: Use os.OpenRoot to prevent path traversal attacks
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = root.Close() // Best-effort cleanup
	}()
	return root.ReadFile(filepath.Base(path))
}

func parseType(path string) (catalog.Entry, error) {
	data, err := readFile(path)
	if err != nil {
		return catalog.Entry{}, err
	}
	var doc typeDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return catalog.Entry{}, fmt.Errorf("failed to decode type YAML: %w", err)
	}
	return doc.entry()
}

func parseService(path string) (meta.ServiceDescriptor, error) {
	data, err := readFile(path)
	if err != nil {
		return meta.ServiceDescriptor{}, err
	}
	var doc serviceSpec
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return meta.ServiceDescriptor{}, fmt.Errorf("failed to decode service YAML: %w", err)
	}
	return doc.descriptor()
}

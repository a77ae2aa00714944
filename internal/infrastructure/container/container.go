// Package container provides dependency injection for the application.
package container

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	goruntime "runtime"
	"slices"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/application/services"
	"github.com/reglet-dev/composer/internal/domain/assembly"
	"github.com/reglet-dev/composer/internal/domain/model"
	infracapabilities "github.com/reglet-dev/composer/internal/infrastructure/capabilities"
	"github.com/reglet-dev/composer/internal/infrastructure/config"
	"github.com/reglet-dev/composer/internal/infrastructure/logging"
	"github.com/reglet-dev/composer/internal/infrastructure/metrics"
	"github.com/reglet-dev/composer/internal/infrastructure/output"
	"github.com/reglet-dev/composer/internal/infrastructure/repository"
	"github.com/reglet-dev/composer/internal/infrastructure/runtime"
	"github.com/reglet-dev/composer/internal/infrastructure/scanner"
	"github.com/reglet-dev/composer/internal/infrastructure/system"
	"github.com/reglet-dev/composer/internal/infrastructure/typeloader"
)

// Container holds all application dependencies.
type Container struct {
	assembleUseCase *services.AssembleUseCase
	catalogUseCase  *services.CatalogUseCase
	profileLoader   *config.ProfileLoader
	repository      *repository.OCIRepository
	types           *typeloader.Registry
	formatters      ports.OutputFormatterFactory
	metrics         *prometheus.Registry
	systemCfg       *system.Config
	logger          *slog.Logger
}

// Options configure the container.
type Options struct {
	Logger *slog.Logger
	// LogHandler receives the records of model loggers. Defaults to the
	// handler of Logger.
	LogHandler       slog.Handler
	SecurityLevel    string
	SystemConfigPath string
	TrustAll         bool
	// NoInteractive disables prompting for capabilities that were not granted.
	NoInteractive bool
	// Strict makes resolving a classname without a registered factory fail
	// while the tree is built.
	Strict bool
	// MaxConcurrent limits parallel scanning and commissioning.
	MaxConcurrent int
}

// DefaultSystemConfigPath returns ~/.composer/config.yaml.
func DefaultSystemConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".composer", "config.yaml")
}

// New creates a new dependency injection container.
func New(opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.LogHandler == nil {
		opts.LogHandler = opts.Logger.Handler()
	}

	// Load system config
	configPath := opts.SystemConfigPath
	if configPath == "" {
		configPath = DefaultSystemConfigPath()
	}
	systemCfg := system.DefaultConfig()
	if configPath != "" {
		loaded, err := system.NewConfigLoader().Load(configPath)
		if err != nil {
			return nil, err
		}
		systemCfg = loaded
	}

	// Logging categories
	rootLevel, err := logging.ParseLevel(systemCfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("system config logging: %w", err)
	}
	logManager := logging.NewManager(opts.LogHandler, rootLevel, opts.Logger)
	for category, priority := range systemCfg.Logging.Categories {
		level, err := logging.ParseLevel(priority)
		if err != nil {
			return nil, fmt.Errorf("system config logging category %q: %w", category, err)
		}
		logManager.SetLevel(category, level)
	}

	// Type system
	types := typeloader.NewRegistry(opts.Strict, opts.Logger)
	typeloader.RegisterBuiltins(types)
	typeScanner := scanner.NewScanner(opts.MaxConcurrent, opts.Logger)

	// Profiles and blocks
	profileLoader, err := config.NewProfileLoader(opts.Logger)
	if err != nil {
		return nil, err
	}
	var repo *repository.OCIRepository
	var artifacts ports.ArtifactRepository
	if systemCfg.Repository.Layout != "" {
		repo, err = repository.OpenLayout(systemCfg.Repository.Layout, opts.Logger)
		if err != nil {
			return nil, fmt.Errorf("opening block repository: %w", err)
		}
		artifacts = repo
	}
	blocks := config.NewBlockResolver(profileLoader, artifacts)

	// Security level: command-line flag takes precedence over config file
	securityLevel := opts.SecurityLevel
	if securityLevel == "" {
		securityLevel = string(systemCfg.Security.GetSecurityLevel())
	}
	var gate ports.SecurityGate
	if systemCfg.Security.Enabled || opts.SecurityLevel != "" {
		gatekeeper := services.NewCapabilityGatekeeper(systemCfg.GrantTable(), securityLevel, opts.TrustAll, opts.Logger)
		if !opts.NoInteractive {
			var store ports.GrantStore
			if configPath != "" {
				store = infracapabilities.NewFileStore(configPath)
			}
			gatekeeper.WithPrompter(infracapabilities.NewTerminalPrompter(), store)
		}
		gate = gatekeeper
	}

	rt := runtime.New(runtime.Options{
		MaxConcurrent: opts.MaxConcurrent,
		Gate:          gate,
		Capabilities:  types.Capabilities(),
	}, opts.Logger)

	// Metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	assembler := assembly.New(assembly.Options{Logger: opts.Logger, Observer: collector})

	assembleUseCase := services.NewAssembleUseCase(
		typeScanner,
		types,
		profileLoader,
		blocks,
		logManager,
		rt,
		assembler,
		[]model.CompositionListener{collector},
		services.Workspace{
			HomeDir:           systemCfg.HomeDir,
			TempDir:           systemCfg.TempDir,
			DeploymentTimeout: systemCfg.DeploymentTimeout(),
			System:            systemEntries(),
		},
		opts.Logger,
	)

	return &Container{
		assembleUseCase: assembleUseCase,
		catalogUseCase:  services.NewCatalogUseCase(typeScanner, types, opts.Logger),
		profileLoader:   profileLoader,
		repository:      repo,
		types:           types,
		formatters:      output.NewFormatterFactory(),
		metrics:         registry,
		systemCfg:       systemCfg,
		logger:          opts.Logger,
	}, nil
}

// systemEntries are the host entries every component can import. Home and
// temp entries are added per component.
func systemEntries() map[string]any {
	entries := map[string]any{
		model.SystemKeyPrefix + "os": goruntime.GOOS,
	}
	if hostname, err := os.Hostname(); err == nil {
		entries[model.SystemKeyPrefix+"host"] = hostname
	}
	return entries
}

// AssembleUseCase returns the assemble use case.
func (c *Container) AssembleUseCase() *services.AssembleUseCase {
	return c.assembleUseCase
}

// CatalogUseCase returns the catalog use case.
func (c *Container) CatalogUseCase() *services.CatalogUseCase {
	return c.catalogUseCase
}

// ProfileLoader returns the profile loader.
func (c *Container) ProfileLoader() *config.ProfileLoader {
	return c.profileLoader
}

// Repository returns the block repository, or nil when none is configured.
func (c *Container) Repository() *repository.OCIRepository {
	return c.repository
}

// Types returns the implementation registry. Factories registered before
// the first assembly are used when components are commissioned.
func (c *Container) Types() *typeloader.Registry {
	return c.types
}

// Formatters returns the output formatter factory.
func (c *Container) Formatters() ports.OutputFormatterFactory {
	return c.formatters
}

// Metrics returns the registry holding assembly metrics.
func (c *Container) Metrics() *prometheus.Registry {
	return c.metrics
}

// TypePaths returns the configured type paths followed by extra, without
// duplicates.
func (c *Container) TypePaths(extra ...string) []string {
	paths := slices.Clone(c.systemCfg.TypePaths)
	for _, p := range extra {
		if !slices.Contains(paths, p) {
			paths = append(paths, p)
		}
	}
	return paths
}

// SystemConfig returns the system configuration.
func (c *Container) SystemConfig() *system.Config {
	return c.systemCfg
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Package services contains application use cases.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reglet-dev/composer/internal/application/dto"
	apperrors "github.com/reglet-dev/composer/internal/application/errors"
	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/domain/assembly"
	"github.com/reglet-dev/composer/internal/domain/model"
	domainservices "github.com/reglet-dev/composer/internal/domain/services"
	"github.com/reglet-dev/composer/internal/domain/values"
)

// Workspace holds the directories and defaults shared by every model of a tree.
type Workspace struct {
	HomeDir           string
	TempDir           string
	DeploymentTimeout time.Duration
	// System entries are visible to every context model.
	System map[string]any
}

// AssembleUseCase loads a containment profile, builds its model tree,
// assembles every component and optionally commissions the result.
type AssembleUseCase struct {
	scanner      ports.TypeScanner
	classLoaders ports.ClassLoaderFactory
	loader       ports.ProfileLoader
	blocks       model.BlockResolver
	logging      model.LoggingManager
	runtime      ports.Runtime
	assembler    *assembly.Assembler
	listeners    []model.CompositionListener
	workspace    Workspace
	logger       *slog.Logger
}

// NewAssembleUseCase creates a new assemble use case. runtime may be nil
// when commissioning is never requested.
func NewAssembleUseCase(
	scanner ports.TypeScanner,
	classLoaders ports.ClassLoaderFactory,
	loader ports.ProfileLoader,
	blocks model.BlockResolver,
	logging model.LoggingManager,
	runtime ports.Runtime,
	assembler *assembly.Assembler,
	listeners []model.CompositionListener,
	workspace Workspace,
	logger *slog.Logger,
) *AssembleUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if assembler == nil {
		assembler = assembly.New(assembly.Options{Logger: logger})
	}

	return &AssembleUseCase{
		scanner:      scanner,
		classLoaders: classLoaders,
		loader:       loader,
		blocks:       blocks,
		logging:      logging,
		runtime:      runtime,
		assembler:    assembler,
		listeners:    listeners,
		workspace:    workspace,
		logger:       logger,
	}
}

// Execute runs the complete assemble workflow. Assembly failures are
// reported, not returned; errors are reserved for problems that prevent a
// report from being produced or a requested commission from running.
func (uc *AssembleUseCase) Execute(ctx context.Context, req dto.AssembleRequest) (*dto.AssemblyReport, error) {
	startTime := time.Now()
	id := values.NewAssemblyID()
	logger := uc.logger.With("assembly", id.String())

	filter, err := CompileReportFilter(req.Options.Filter)
	if err != nil {
		return nil, err
	}

	root, err := uc.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	logger.Info("model tree built", "profile", req.ProfilePath, "components", len(root.Components()))

	report := &dto.AssemblyReport{
		ID:          id.String(),
		Profile:     req.ProfilePath,
		GeneratedAt: startTime,
	}

	for _, comp := range root.Components() {
		if err := uc.assembler.AssembleModel(ctx, comp); err != nil {
			logger.Warn("component not assembled", "model", comp.Path(), "error", err)
			report.Failures = append(report.Failures, failureReport(comp, err))
		}
	}
	report.Models = FilterModels(describeTree(root), filter)

	if report.Assembled() {
		levels, err := assembly.CommissionOrder(root)
		if err != nil {
			return nil, fmt.Errorf("ordering assembled models: %w", err)
		}
		for _, level := range levels {
			paths := make([]string, 0, len(level.Nodes))
			for _, n := range level.Nodes {
				paths = append(paths, n.Path)
			}
			report.Levels = append(report.Levels, paths)
		}
	}

	if req.Options.Commission {
		if !report.Assembled() {
			report.Duration = time.Since(startTime)
			return report, apperrors.NewConfigurationError("commission",
				fmt.Sprintf("%d components are not assembled", len(report.Failures)), nil)
		}
		if err := uc.commission(ctx, root, req.Options.Hold); err != nil {
			report.Duration = time.Since(startTime)
			return report, err
		}
		report.Commissioned = true
	}

	report.Duration = time.Since(startTime)
	summary := report.Summary()
	logger.Info("assembly complete",
		"models", summary.Models,
		"assembled", summary.Assembled,
		"failures", summary.Failures,
		"duration", report.Duration)
	return report, nil
}

// Build scans the type catalog, loads the profile and creates the model tree
// without assembling it.
func (uc *AssembleUseCase) Build(ctx context.Context, req dto.AssembleRequest) (*model.ContainmentModel, error) {
	scanned, err := uc.scanner.Scan(ctx, req.TypePaths)
	if err != nil {
		return nil, apperrors.NewConfigurationError("types", "failed to scan type descriptors", err)
	}

	classLoader, err := uc.classLoaders.NewClassLoaderModel(scanned)
	if err != nil {
		return nil, apperrors.NewConfigurationError("types", "failed to build type catalog", err)
	}

	profile, err := uc.loader.LoadContainment(ctx, req.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", req.ProfilePath, err)
	}

	env := &model.Environment{
		Logger:            uc.logger,
		Logging:           uc.logging,
		TypeLoader:        classLoader.TypeLoader(),
		Types:             classLoader.Types(),
		Services:          classLoader.Services(),
		Blocks:            uc.blocks,
		Evaluator:         domainservices.NewEntryEvaluator(uc.workspace.System),
		System:            uc.workspace.System,
		HomeDir:           uc.workspace.HomeDir,
		TempDir:           uc.workspace.TempDir,
		DeploymentTimeout: uc.workspace.DeploymentTimeout,
	}

	root, err := model.NewRootContainmentModel(ctx, env, profile)
	if err != nil {
		return nil, fmt.Errorf("building model tree: %w", err)
	}

	if req.TargetsPath != "" {
		targets, err := uc.loader.LoadTargets(ctx, req.TargetsPath)
		if err != nil {
			return nil, fmt.Errorf("loading targets %s: %w", req.TargetsPath, err)
		}
		root.ApplyTargets(targets)
	}

	uc.attachListeners(root)
	for _, l := range uc.listeners {
		if s, ok := l.(model.CompositionSeeder); ok {
			s.Seed(root)
		}
	}
	return root, nil
}

func (uc *AssembleUseCase) attachListeners(c *model.ContainmentModel) {
	for _, l := range uc.listeners {
		c.AddCompositionListener(l)
	}
	for _, m := range c.Models() {
		if nested, ok := m.(*model.ContainmentModel); ok {
			uc.attachListeners(nested)
		}
	}
}

func (uc *AssembleUseCase) commission(ctx context.Context, root *model.ContainmentModel, hold bool) error {
	if uc.runtime == nil {
		return apperrors.NewConfigurationError("commission", "no runtime configured", nil)
	}
	if err := uc.runtime.Commission(ctx, root); err != nil {
		return err
	}
	uc.logger.Info("tree commissioned", "root", root.Path())

	if hold {
		<-ctx.Done()
		uc.logger.Info("shutting down", "reason", context.Cause(ctx))
	}

	if err := uc.runtime.Decommission(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	uc.logger.Info("tree decommissioned", "root", root.Path())
	return nil
}

func failureReport(comp *model.ComponentModel, err error) dto.FailureReport {
	f := dto.FailureReport{Model: comp.Path(), Message: err.Error()}

	var asmErr *model.AssemblyError
	if errors.As(err, &asmErr) {
		f.Key = asmErr.Key
	}
	var cycle *assembly.CycleError
	if errors.As(err, &cycle) {
		f.Cycle = cycle.Chain
	}
	return f
}

func describeTree(c *model.ContainmentModel) []dto.ModelReport {
	var out []dto.ModelReport
	for _, m := range c.Models() {
		switch t := m.(type) {
		case *model.ComponentModel:
			out = append(out, describeComponent(t))
		case *model.ContainmentModel:
			out = append(out, dto.ModelReport{
				Path:      t.Path(),
				Kind:      dto.KindContainer,
				Mode:      t.Mode().String(),
				Assembled: t.IsAssembled(),
			})
			out = append(out, describeTree(t)...)
		}
	}
	return out
}

func describeComponent(c *model.ComponentModel) dto.ModelReport {
	r := dto.ModelReport{
		Path:       c.Path(),
		Kind:       dto.KindComponent,
		Type:       c.Type().Classname(),
		Mode:       c.Mode().String(),
		Activation: c.ActivationPolicy().String(),
		Collection: c.CollectionPolicy().String(),
		Assembled:  c.IsAssembled(),
	}

	if cm := c.ContextModel(); cm != nil && cm.Strategy() != nil {
		r.Bindings = append(r.Bindings, binding(dto.BindingContext, cm.Strategy(), false))
	}
	for _, s := range c.StageModels() {
		r.Bindings = append(r.Bindings, binding(dto.BindingStage, s, false))
	}
	for _, d := range c.DependencyModels() {
		r.Bindings = append(r.Bindings, binding(dto.BindingDependency, d, !d.Descriptor().IsRequired()))
	}
	return r
}

func binding(kind string, req model.Requirement, optional bool) dto.BindingReport {
	b := dto.BindingReport{Key: req.Key(), Kind: kind, Optional: optional}
	if p := req.Provider(); p != nil {
		b.Provider = p.Path()
	}
	return b
}

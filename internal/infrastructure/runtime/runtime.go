// Package runtime brings assembled model trees to life. Components are
// commissioned level by level, providers before consumers, and
// decommissioned in the reverse order.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/reglet-dev/composer/internal/application/errors"
	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/domain/assembly"
	"github.com/reglet-dev/composer/internal/domain/capabilities"
	"github.com/reglet-dev/composer/internal/domain/model"
	"github.com/reglet-dev/composer/internal/domain/values"
	"github.com/reglet-dev/composer/internal/infrastructure/typeloader"
)

var (
	// ErrDeploymentTimeout is returned when a component did not come up within
	// its deployment timeout but honoured the interrupt.
	ErrDeploymentTimeout = errors.New("deployment timeout")
	// ErrInterruptFailed is returned when a timed out deployment also ignored
	// the interrupt for the whole grace period.
	ErrInterruptFailed = errors.New("deployment did not respond to interrupt")
	// ErrNotCommissioned is returned by Resolve and Release before Commission.
	ErrNotCommissioned = errors.New("runtime is not commissioned")
)

// Options configures the runtime.
type Options struct {
	// MaxConcurrent limits the components commissioned in parallel within
	// one level. Zero means unlimited.
	MaxConcurrent int
	// InterruptGrace is how long a timed out deployment may take to return
	// after its context was cancelled. Defaults to one second.
	InterruptGrace time.Duration
	// Gate authorizes required capabilities. Nil allows everything.
	Gate ports.SecurityGate
	// Capabilities extracts configuration dependent capabilities.
	Capabilities *capabilities.Registry
}

type instance struct {
	component *model.ComponentModel
	value     any
}

// Runtime is the default ports.Runtime.
type Runtime struct {
	opts   Options
	logger *slog.Logger

	group singleflight.Group

	mu        sync.Mutex
	root      *model.ContainmentModel
	instances map[string]*instance
	order     []string
}

var _ ports.Runtime = (*Runtime)(nil)

// New creates a runtime.
func New(opts Options, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.InterruptGrace <= 0 {
		opts.InterruptGrace = time.Second
	}
	if opts.Capabilities == nil {
		opts.Capabilities = capabilities.NewRegistry()
	}
	return &Runtime{
		opts:      opts,
		logger:    logger,
		instances: make(map[string]*instance),
	}
}

// Commission deploys every startup component of root. Lazily activated
// components are deployed on first Resolve. When a component fails the
// components already deployed are decommissioned again.
func (r *Runtime) Commission(ctx context.Context, root *model.ContainmentModel) error {
	levels, err := assembly.CommissionOrder(root)
	if err != nil {
		return apperrors.NewCommissionError(root.Path(), "cannot order components", err)
	}

	r.mu.Lock()
	r.root = root
	r.mu.Unlock()

	for _, level := range levels {
		g, levelCtx := errgroup.WithContext(ctx)
		if r.opts.MaxConcurrent > 0 {
			g.SetLimit(r.opts.MaxConcurrent)
		}

		for _, node := range level.Nodes {
			g.Go(func() error {
				comp, err := r.component(node.Path)
				if err != nil {
					return err
				}
				if comp.ActivationPolicy() == values.ActivationLazy {
					comp.Logger().Debug("deferring lazy component")
					return nil
				}
				_, err = r.deploy(levelCtx, comp)
				return err
			})
		}

		if err := g.Wait(); err != nil {
			r.logger.Error("commission failed, rolling back", "level", level.Level, "error", err)
			if derr := r.Decommission(context.WithoutCancel(ctx)); derr != nil {
				r.logger.Warn("rollback incomplete", "error", derr)
			}
			return err
		}
	}

	r.logger.Info("commissioned", "model", root.Path(), "instances", r.count())
	return nil
}

// Decommission stops every deployed instance, consumers first.
func (r *Runtime) Decommission(ctx context.Context) error {
	r.mu.Lock()
	order := slices.Clone(r.order)
	instances := r.instances
	r.order = nil
	r.instances = make(map[string]*instance)
	r.mu.Unlock()

	var errs []error
	for _, path := range slices.Backward(order) {
		if err := r.stop(ctx, instances[path]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Resolve returns the instance at path, deploying it when needed.
func (r *Runtime) Resolve(ctx context.Context, path string) (any, error) {
	comp, err := r.component(path)
	if err != nil {
		return nil, err
	}
	return r.deploy(ctx, comp)
}

// Release signals that the caller no longer needs the instance at path.
// Lazy instances without a conservative collection policy are stopped and
// will be deployed again on the next Resolve. An instance still used by a
// deployed consumer is kept.
func (r *Runtime) Release(ctx context.Context, path string) error {
	comp, err := r.component(path)
	if err != nil {
		return err
	}
	if comp.ActivationPolicy() != values.ActivationLazy || comp.CollectionPolicy() == values.CollectionConservative {
		return nil
	}

	r.mu.Lock()
	root := r.root
	r.mu.Unlock()
	consumers, err := assembly.Consumers(root, comp.Path())
	if err != nil {
		return err
	}

	r.mu.Lock()
	for _, consumer := range consumers {
		if _, deployed := r.instances[consumer]; deployed {
			r.mu.Unlock()
			comp.Logger().Debug("instance still in use", "consumer", consumer)
			return nil
		}
	}
	inst, ok := r.instances[comp.Path()]
	if ok {
		delete(r.instances, comp.Path())
		r.order = slices.DeleteFunc(r.order, func(p string) bool { return p == comp.Path() })
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return r.stop(ctx, inst)
}

func (r *Runtime) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

func (r *Runtime) component(path string) (*model.ComponentModel, error) {
	r.mu.Lock()
	root := r.root
	r.mu.Unlock()
	if root == nil {
		return nil, ErrNotCommissioned
	}

	m, err := root.GetModel(path)
	if err != nil {
		return nil, err
	}
	comp, ok := m.(*model.ComponentModel)
	if !ok {
		return nil, fmt.Errorf("%s is not a component", path)
	}
	return comp, nil
}

func (r *Runtime) lookup(path string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[path]
	if !ok {
		return nil, false
	}
	return inst.value, true
}

// deploy returns the instance of comp, creating it once even when asked
// concurrently. A caller that joined a deployment cancelled by another
// caller's context starts a new one under its own.
func (r *Runtime) deploy(ctx context.Context, comp *model.ComponentModel) (any, error) {
	path := comp.Path()
	for {
		if v, ok := r.lookup(path); ok {
			return v, nil
		}
		v, err, shared := r.group.Do(path, func() (any, error) {
			if v, ok := r.lookup(path); ok {
				return v, nil
			}
			value, err := r.create(ctx, comp)
			if err != nil {
				return nil, err
			}
			r.mu.Lock()
			r.instances[path] = &instance{component: comp, value: value}
			r.order = append(r.order, path)
			r.mu.Unlock()
			return value, nil
		})
		if err == nil || !shared || ctx.Err() != nil || !cancelled(err) {
			return v, err
		}
		comp.Logger().Debug("shared deployment was cancelled, retrying")
	}
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (r *Runtime) create(ctx context.Context, comp *model.ComponentModel) (any, error) {
	path := comp.Path()
	if !comp.IsAssembled() {
		return nil, apperrors.NewCommissionError(path, "component is not assembled", nil)
	}

	handle, ok := comp.Handle().(*typeloader.Handle)
	if !ok || handle.Factory() == nil {
		return nil, apperrors.NewCommissionError(path, "no implementation registered for "+comp.Profile().Classname, nil)
	}

	configuration := comp.Configuration()
	if r.opts.Gate != nil {
		required := r.opts.Capabilities.Required(handle.Classname(), comp.Type().Capabilities, configuration)
		if err := r.opts.Gate.Authorize(path, required); err != nil {
			return nil, apperrors.NewCommissionError(path, "not authorized", err)
		}
	}

	deployment := typeloader.Deployment{
		Path:          path,
		Configuration: configuration,
		Parameters:    comp.Parameters(),
		Logger:        comp.Logger(),
		HomeDir:       comp.HomeDir(),
		TempDir:       comp.TempDir(),
	}

	if cm := comp.ContextModel(); cm != nil {
		resolved, err := cm.Resolve()
		if err != nil {
			return nil, apperrors.NewCommissionError(path, "cannot resolve context", err)
		}
		deployment.Context = resolved
	}

	var err error
	if deployment.Stages, err = providers(ctx, r, comp.StageModels()); err != nil {
		return nil, err
	}
	if deployment.Dependencies, err = providers(ctx, r, comp.DependencyModels()); err != nil {
		return nil, err
	}

	start := time.Now()
	value, err := r.start(ctx, comp, handle.Factory(), deployment)
	if err != nil {
		return nil, apperrors.NewCommissionError(path, "deployment failed", err)
	}
	comp.Logger().Debug("component deployed", "duration", time.Since(start))
	return value, nil
}

// providers deploys the bound provider of every requirement and returns the
// instances keyed by requirement key. Unbound optional requirements are absent.
func providers[R model.Requirement](ctx context.Context, r *Runtime, requirements []R) (map[string]any, error) {
	out := make(map[string]any, len(requirements))
	for _, req := range requirements {
		p := req.Provider()
		if p == nil {
			continue
		}
		v, err := r.deploy(ctx, p)
		if err != nil {
			return nil, err
		}
		out[req.Key()] = v
	}
	return out, nil
}

type result struct {
	value any
	err   error
}

// start runs the factory and Start hook within the deployment timeout. On
// timeout or cancellation the deployment context is cancelled and the
// deployment gets InterruptGrace to return; an instance that still comes
// back is stopped, never recorded.
func (r *Runtime) start(ctx context.Context, comp *model.ComponentModel, factory typeloader.Factory, d typeloader.Deployment) (any, error) {
	timeout := comp.DeploymentTimeout()
	dctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		v, err := factory(dctx, d)
		if err == nil {
			if s, ok := v.(typeloader.Starter); ok {
				err = s.Start(dctx)
			}
		}
		done <- result{value: v, err: err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	var cause error
	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		cause = ctx.Err()
		comp.Logger().Debug("deployment cancelled, waiting for it to return")
	case <-expired:
		cause = fmt.Errorf("%w after %s", ErrDeploymentTimeout, timeout)
		comp.Logger().Warn("deployment timed out, interrupting", "timeout", timeout)
	}
	cancel()

	grace := time.NewTimer(r.opts.InterruptGrace)
	defer grace.Stop()
	select {
	case res := <-done:
		if res.err == nil {
			r.discard(comp, res.value)
		}
		return nil, cause
	case <-grace.C:
		// Nobody waits for this deployment any more; stop whatever it
		// eventually returns.
		go func() {
			if res := <-done; res.err == nil {
				r.discard(comp, res.value)
			}
		}()
		if ctx.Err() != nil {
			return nil, cause
		}
		return nil, fmt.Errorf("%w after %s", ErrInterruptFailed, timeout+r.opts.InterruptGrace)
	}
}

// discard stops an instance whose deployment was abandoned.
func (r *Runtime) discard(comp *model.ComponentModel, v any) {
	if err := r.stop(context.Background(), &instance{component: comp, value: v}); err != nil {
		comp.Logger().Warn("discarding late instance failed", "error", err)
	}
}

func (r *Runtime) stop(ctx context.Context, inst *instance) error {
	if inst == nil {
		return nil
	}
	s, ok := inst.value.(typeloader.Stopper)
	if !ok {
		return nil
	}

	sctx := ctx
	if timeout := inst.component.DeploymentTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := s.Stop(sctx); err != nil {
		return apperrors.NewCommissionError(inst.component.Path(), "decommission failed", err)
	}
	inst.component.Logger().Debug("component decommissioned")
	return nil
}

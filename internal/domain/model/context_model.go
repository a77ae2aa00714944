package model

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/meta"
	"github.com/reglet-dev/composer/internal/domain/services"
)

// ContextModel describes how the creation context of a component is built.
// Entries whose key carries the system prefix come from the system context,
// every other entry needs a directive unless it is optional.
type ContextModel struct {
	descriptor meta.ContextDescriptor
	directive  *entities.ContextDirective
	strategy   *StageModel
	evaluator  *services.EntryEvaluator
	system     map[string]any
	logger     *slog.Logger
}

// NewContextModel validates entries against the directive.
func NewContextModel(
	logger *slog.Logger,
	path string,
	descriptor meta.ContextDescriptor,
	directive *entities.ContextDirective,
	evaluator *services.EntryEvaluator,
	system map[string]any,
) (*ContextModel, error) {
	c := &ContextModel{
		descriptor: descriptor,
		directive:  directive,
		system:     system,
		logger:     logger,
	}
	if evaluator != nil {
		c.evaluator = evaluator.WithSystem(system)
	} else {
		c.evaluator = services.NewEntryEvaluator(system)
	}

	strategy := descriptor.Strategy
	if directive != nil && directive.Strategy != "" {
		strategy = directive.Strategy
	}
	if strategy != "" {
		stage, err := NewStageModel(logger, "", meta.StageDescriptor{Key: strategy}, nil)
		if err != nil {
			return nil, err
		}
		c.strategy = stage
	}

	for _, entry := range descriptor.Entries {
		if isSystemKey(entry.Key) {
			if _, ok := system[entry.Key]; !ok && entry.IsRequired() {
				return nil, NewModelError(path, fmt.Sprintf("system context entry %q is not available", entry.Key), nil)
			}
			continue
		}
		if directive.Entry(entry.Key) == nil && entry.IsRequired() {
			return nil, NewModelError(path, fmt.Sprintf("missing directive for required context entry %q", entry.Key), nil)
		}
	}
	return c, nil
}

func isSystemKey(key string) bool {
	return strings.HasPrefix(key, SystemKeyPrefix)
}

// Strategy returns the contextualization strategy requirement, or nil when
// the default key/value strategy applies.
func (c *ContextModel) Strategy() *StageModel {
	return c.strategy
}

// IsAssembled reports whether the strategy, if any, has a provider.
func (c *ContextModel) IsAssembled() bool {
	return c.strategy == nil || c.strategy.IsBound()
}

// Descriptor returns the context descriptor.
func (c *ContextModel) Descriptor() meta.ContextDescriptor {
	return c.descriptor
}

// Resolve evaluates every entry. Entries are evaluated in declaration order
// so later constructed entries may reference earlier ones.
func (c *ContextModel) Resolve() (map[string]any, error) {
	resolved := make(map[string]any, len(c.descriptor.Entries))
	for _, entry := range c.descriptor.Entries {
		v, ok, err := c.entry(entry, resolved)
		if err != nil {
			return nil, fmt.Errorf("context entry %q: %w", entry.Key, err)
		}
		if !ok {
			continue
		}
		resolved[entry.Key] = v
		if entry.Alias != "" {
			resolved[entry.Alias] = v
		}
	}
	return resolved, nil
}

func (c *ContextModel) entry(entry meta.EntryDescriptor, resolved map[string]any) (any, bool, error) {
	if isSystemKey(entry.Key) {
		v, ok := c.system[entry.Key]
		return v, ok, nil
	}
	directive := c.directive.Entry(entry.Key)
	if directive == nil {
		if entry.IsRequired() {
			return nil, false, fmt.Errorf("no directive")
		}
		return nil, false, nil
	}
	v, err := c.evaluator.Evaluate(directive.Source, resolved)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Package metrics exports assembly and composition activity as Prometheus
// metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reglet-dev/composer/internal/domain/assembly"
	"github.com/reglet-dev/composer/internal/domain/model"
)

const namespace = "composer"

// Collector records assembly progress and model tree changes.
type Collector struct {
	bindings *prometheus.CounterVec
	duration prometheus.Histogram
	failures prometheus.Counter
	models   *prometheus.GaugeVec
}

var (
	_ assembly.Observer         = (*Collector)(nil)
	_ model.CompositionListener = (*Collector)(nil)
	_ model.CompositionSeeder   = (*Collector)(nil)
)

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		bindings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assembly_bindings_total",
				Help:      "Number of requirements bound to a provider, by requirement kind and provider source.",
			},
			[]string{"kind", "source"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "assembly_duration_seconds",
				Help:      "Time taken to assemble one component, including its providers.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		failures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assembly_failures_total",
				Help:      "Number of top-level assembly requests that failed.",
			},
		),
		models: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "models",
				Help:      "Number of models in the composed tree below the root, by model kind.",
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(c.bindings, c.duration, c.failures, c.models)
	return c
}

func requirementKind(req model.Requirement) string {
	switch req.(type) {
	case *model.DependencyModel:
		return "dependency"
	case *model.StageModel:
		return "stage"
	default:
		return "unknown"
	}
}

func modelKind(m model.Model) string {
	if _, ok := m.(*model.ContainmentModel); ok {
		return "containment"
	}
	return "component"
}

func (c *Collector) ProviderBound(_ *model.ComponentModel, req model.Requirement, _ *model.ComponentModel, source assembly.Source) {
	c.bindings.WithLabelValues(requirementKind(req), string(source)).Inc()
}

func (c *Collector) ModelAssembled(_ *model.ComponentModel, elapsed time.Duration) {
	c.duration.Observe(elapsed.Seconds())
}

func (c *Collector) AssemblyFailed(*model.ComponentModel, error) {
	c.failures.Inc()
}

// Seed counts the models already below root. Call it once, when the
// collector is attached to a freshly built tree.
func (c *Collector) Seed(root *model.ContainmentModel) {
	for _, m := range root.Models() {
		c.track(m, 1)
	}
}

func (c *Collector) ModelAdded(e model.CompositionEvent) error {
	c.track(e.Child, 1)
	return nil
}

func (c *Collector) ModelRemoved(e model.CompositionEvent) error {
	c.track(e.Child, -1)
	return nil
}

// track counts m and, for containers, everything nested in it.
func (c *Collector) track(m model.Model, delta float64) {
	c.models.WithLabelValues(modelKind(m)).Add(delta)
	if nested, ok := m.(*model.ContainmentModel); ok {
		for _, child := range nested.Models() {
			c.track(child, delta)
		}
	}
}

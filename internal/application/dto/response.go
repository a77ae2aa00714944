package dto

import "time"

// Binding kinds.
const (
	BindingDependency = "dependency"
	BindingStage      = "stage"
	BindingContext    = "context"
)

// Model kinds.
const (
	KindComponent = "component"
	KindContainer = "container"
)

// AssemblyReport describes the outcome of assembling one containment profile.
type AssemblyReport struct {
	ID           string          `json:"id" yaml:"id"`
	Profile      string          `json:"profile" yaml:"profile"`
	GeneratedAt  time.Time       `json:"generated_at" yaml:"generated_at"`
	Duration     time.Duration   `json:"duration" yaml:"duration"`
	Models       []ModelReport   `json:"models" yaml:"models"`
	Failures     []FailureReport `json:"failures,omitempty" yaml:"failures,omitempty"`
	Levels       [][]string      `json:"levels,omitempty" yaml:"levels,omitempty"`
	Commissioned bool            `json:"commissioned" yaml:"commissioned"`
}

// Assembled reports whether every model was assembled.
func (r *AssemblyReport) Assembled() bool {
	return len(r.Failures) == 0
}

// Summary counts models, assembled models and failures.
func (r *AssemblyReport) Summary() ReportSummary {
	s := ReportSummary{Models: len(r.Models), Failures: len(r.Failures)}
	for _, m := range r.Models {
		if m.Assembled {
			s.Assembled++
		}
	}
	return s
}

// ReportSummary holds aggregate counts of a report.
type ReportSummary struct {
	Models    int `json:"models" yaml:"models"`
	Assembled int `json:"assembled" yaml:"assembled"`
	Failures  int `json:"failures" yaml:"failures"`
}

// ModelReport describes one model of the tree.
type ModelReport struct {
	Path       string          `json:"path" yaml:"path" expr:"path"`
	Kind       string          `json:"kind" yaml:"kind" expr:"kind"`
	Type       string          `json:"type,omitempty" yaml:"type,omitempty" expr:"type"`
	Mode       string          `json:"mode" yaml:"mode" expr:"mode"`
	Activation string          `json:"activation,omitempty" yaml:"activation,omitempty" expr:"activation"`
	Collection string          `json:"collection,omitempty" yaml:"collection,omitempty" expr:"collection"`
	Assembled  bool            `json:"assembled" yaml:"assembled" expr:"assembled"`
	Bindings   []BindingReport `json:"bindings,omitempty" yaml:"bindings,omitempty" expr:"bindings"`
}

// BindingReport describes one requirement of a component and its provider.
type BindingReport struct {
	Key      string `json:"key" yaml:"key" expr:"key"`
	Kind     string `json:"kind" yaml:"kind" expr:"kind"`
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty" expr:"provider"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty" expr:"optional"`
}

// FailureReport describes one component that could not be assembled.
type FailureReport struct {
	Model   string   `json:"model" yaml:"model"`
	Key     string   `json:"key,omitempty" yaml:"key,omitempty"`
	Message string   `json:"message" yaml:"message"`
	Cycle   []string `json:"cycle,omitempty" yaml:"cycle,omitempty"`
}

// TypeSummary describes one component type of the catalog.
type TypeSummary struct {
	Name         string   `json:"name" yaml:"name"`
	Classname    string   `json:"classname" yaml:"classname"`
	Version      string   `json:"version,omitempty" yaml:"version,omitempty"`
	Services     []string `json:"services,omitempty" yaml:"services,omitempty"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Stages       []string `json:"stages,omitempty" yaml:"stages,omitempty"`
	Extensions   []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Profiles     []string `json:"profiles" yaml:"profiles"`
}

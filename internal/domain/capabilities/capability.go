// Package capabilities defines the code-security grant model: the
// capabilities a component needs at commission time and the grants
// attached to containment partitions.
package capabilities

import (
	"fmt"
	"slices"
	"strings"
)

// Capability kinds.
const (
	KindFS      = "fs"
	KindNetwork = "network"
	KindEnv     = "env"
	KindExec    = "exec"
)

// broadPatterns lists, per kind, the patterns that reach far beyond what a
// single component should need.
var broadPatterns = map[string][]string{
	KindFS: {
		"**", "/**", "read:**", "write:**", "read:/", "write:/",
		"read:/etc/**", "write:/etc/**",
		"read:/root/**", "write:/root/**",
		"read:/home/**", "write:/home/**",
	},
	KindExec:    {"*", "**", "bash", "sh", "zsh", "fish", "/bin/bash", "/bin/sh"},
	KindNetwork: {"*", "outbound:*"},
	KindEnv:     {"*", "AWS_*", "AZURE_*", "GCP_*"},
}

// RiskLevel grades how much a capability exposes.
type RiskLevel int

const (
	RiskLevelLow RiskLevel = iota
	RiskLevelMedium
	RiskLevelHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLevelLow:
		return "low"
	case RiskLevelMedium:
		return "medium"
	case RiskLevelHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Capability is something a component does outside its own memory: touch
// files, open connections, read the environment or run programs.
type Capability struct {
	Kind    string `yaml:"kind" json:"kind"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// Parse reads the "kind:pattern" form, e.g. "fs:read:/etc/**".
func Parse(s string) (Capability, error) {
	kind, pattern, ok := strings.Cut(s, ":")
	if !ok || kind == "" || pattern == "" {
		return Capability{}, fmt.Errorf("invalid capability %q: expected kind:pattern", s)
	}
	if _, known := broadPatterns[kind]; !known {
		return Capability{}, fmt.Errorf("invalid capability %q: unknown kind %q", s, kind)
	}
	return Capability{Kind: kind, Pattern: pattern}, nil
}

func (c Capability) String() string {
	return c.Kind + ":" + c.Pattern
}

// IsBroad reports whether the pattern is one of the known overly
// permissive patterns of its kind.
func (c Capability) IsBroad() bool {
	return slices.Contains(broadPatterns[c.Kind], c.Pattern)
}

// RiskLevel grades the capability. Broad capabilities are high risk,
// network access, program execution and reading system configuration
// are medium.
func (c Capability) RiskLevel() RiskLevel {
	switch {
	case c.IsBroad():
		return RiskLevelHigh
	case c.Kind == KindNetwork, c.Kind == KindExec:
		return RiskLevelMedium
	case c.Kind == KindFS && strings.HasPrefix(c.Pattern, "read:/etc/"):
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// RiskDescription says what granting the capability lets a component do.
func (c Capability) RiskDescription() string {
	switch c.Kind {
	case KindFS:
		op, target, _ := strings.Cut(c.Pattern, ":")
		if dir, recursive := strings.CutSuffix(target, "**"); recursive {
			return fmt.Sprintf("Component can %s every file below %s", op, dir)
		}
		if op == "write" {
			return "Component can modify " + target
		}
		return "Component can read " + target
	case KindExec:
		if c.IsBroad() {
			return "Component can run arbitrary shell commands"
		}
		return "Component can run " + c.Pattern
	case KindNetwork:
		if c.IsBroad() {
			return "Component can connect to any host"
		}
		return "Component can use the network: " + c.Pattern
	case KindEnv:
		if c.Pattern == "*" {
			return "Component can read every environment variable"
		}
		return "Component can read environment variables matching " + c.Pattern
	default:
		return "Component requires " + c.String()
	}
}

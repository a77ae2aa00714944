package services

import (
	"fmt"
	"sort"
)

// DeploymentNode is one assembled model in the provider graph, identified by
// its qualified path. DependsOn lists the paths of the providers it is bound to.
type DeploymentNode struct {
	Path      string
	DependsOn []string
}

// DeploymentLevel groups nodes whose providers all belong to earlier levels.
type DeploymentLevel struct {
	Level int
	Nodes []DeploymentNode
}

// DependencyResolver orders deployment nodes so providers come before consumers.
type DependencyResolver struct{}

// NewDependencyResolver creates a new dependency resolver service
func NewDependencyResolver() *DependencyResolver {
	return &DependencyResolver{}
}

// BuildDeploymentLevels builds the provider graph using Kahn's algorithm.
// Nodes in the same level do not depend on each other and may be
// commissioned in parallel. Providers outside the node set are ignored,
// they belong to an enclosing scope that is commissioned separately.
func (r *DependencyResolver) BuildDeploymentLevels(nodes []DeploymentNode) ([]DeploymentLevel, error) {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if known[n.Path] {
			return nil, fmt.Errorf("duplicate deployment node %s", n.Path)
		}
		known[n.Path] = true
	}

	inDegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string)
	for _, n := range nodes {
		seen := make(map[string]bool)
		for _, dep := range n.DependsOn {
			if !known[dep] || seen[dep] || dep == n.Path {
				continue
			}
			seen[dep] = true
			inDegree[n.Path]++
			dependents[dep] = append(dependents[dep], n.Path)
		}
	}

	var levels []DeploymentLevel
	processed := make(map[string]bool, len(nodes))
	level := 0

	for len(processed) < len(nodes) {
		var current []DeploymentNode
		for _, n := range nodes {
			if !processed[n.Path] && inDegree[n.Path] == 0 {
				current = append(current, n)
			}
		}

		if len(current) == 0 {
			var remaining []string
			for _, n := range nodes {
				if !processed[n.Path] {
					remaining = append(remaining, n.Path)
				}
			}
			sort.Strings(remaining)
			return nil, fmt.Errorf("circular provider dependency detected among models: %v", remaining)
		}

		levels = append(levels, DeploymentLevel{Level: level, Nodes: current})

		for _, n := range current {
			processed[n.Path] = true
			for _, dependent := range dependents[n.Path] {
				inDegree[dependent]--
			}
		}
		level++
	}

	return levels, nil
}

// TransitiveConsumers returns every node that depends on path directly or
// indirectly. Releasing path requires releasing these first.
func (r *DependencyResolver) TransitiveConsumers(nodes []DeploymentNode, path string) []string {
	dependents := make(map[string][]string)
	for _, n := range nodes {
		for _, dep := range n.DependsOn {
			dependents[dep] = append(dependents[dep], n.Path)
		}
	}

	visited := make(map[string]bool)
	var out []string
	var visit func(p string)
	visit = func(p string) {
		for _, d := range dependents[p] {
			if visited[d] || d == path {
				continue
			}
			visited[d] = true
			out = append(out, d)
			visit(d)
		}
	}
	visit(path)
	sort.Strings(out)
	return out
}

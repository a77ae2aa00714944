package assembly

import (
	"github.com/reglet-dev/composer/internal/domain/model"
	"github.com/reglet-dev/composer/internal/domain/services"
)

// DeploymentGraph returns one node per component of the subtree with edges
// to its bound providers. Every component must be assembled.
func DeploymentGraph(root *model.ContainmentModel) ([]services.DeploymentNode, error) {
	components := root.Components()
	nodes := make([]services.DeploymentNode, 0, len(components))
	for _, comp := range components {
		providers, err := comp.Providers()
		if err != nil {
			return nil, err
		}
		node := services.DeploymentNode{Path: comp.Path()}
		for _, p := range providers {
			node.DependsOn = append(node.DependsOn, p.Path())
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// CommissionOrder returns the components grouped in levels, providers first.
func CommissionOrder(root *model.ContainmentModel) ([]services.DeploymentLevel, error) {
	nodes, err := DeploymentGraph(root)
	if err != nil {
		return nil, err
	}
	return services.NewDependencyResolver().BuildDeploymentLevels(nodes)
}

// Consumers returns the paths of the components depending on path, directly
// or through other components.
func Consumers(root *model.ContainmentModel, path string) ([]string, error) {
	nodes, err := DeploymentGraph(root)
	if err != nil {
		return nil, err
	}
	return services.NewDependencyResolver().TransitiveConsumers(nodes, path), nil
}

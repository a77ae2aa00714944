package model

import "github.com/reglet-dev/composer/internal/domain/entities"

// ApplyTargets overrides configuration, parameters and logging categories of
// the models named by each target. Containers take categories only.
// Paths that resolve to nothing are logged and skipped.
func (c *ContainmentModel) ApplyTargets(targets []entities.TargetDirective) {
	for _, target := range targets {
		m, err := c.GetModel(target.Path)
		if err != nil {
			c.logger.Warn("unrecognized target path", "path", target.Path, "error", err)
			continue
		}

		switch t := m.(type) {
		case *ComponentModel:
			if target.Configuration != nil {
				t.SetConfiguration(target.Configuration)
			}
			if target.Parameters != nil {
				t.SetParameters(target.Parameters)
			}
			if target.Categories != nil {
				t.SetCategories(target.Categories)
			}
		case *ContainmentModel:
			if target.Configuration != nil || target.Parameters != nil {
				c.logger.Warn("ignoring target configuration for a container", "path", target.Path)
			}
			if target.Categories != nil {
				t.SetCategories(target.Categories)
			}
		}
	}
}

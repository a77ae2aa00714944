package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/composer/internal/domain/entities"
)

func TestConfigurationMerger_MergeConfiguration(t *testing.T) {
	m := NewConfigurationMerger()
	base := map[string]any{
		"pool": map[string]any{"size": 4, "timeout": "1s"},
		"name": "primary",
	}
	overlay := map[string]any{
		"pool":  map[string]any{"size": 8},
		"debug": true,
	}

	got := m.MergeConfiguration(base, overlay)
	assert.Equal(t, map[string]any{
		"pool":  map[string]any{"size": 8, "timeout": "1s"},
		"name":  "primary",
		"debug": true,
	}, got)

	// inputs untouched
	assert.Equal(t, 4, base["pool"].(map[string]any)["size"])
	assert.Nil(t, m.MergeConfiguration(nil, nil))
}

func TestConfigurationMerger_MergeParameters(t *testing.T) {
	m := NewConfigurationMerger()
	got := m.MergeParameters(
		map[string]any{"a": 1, "b": 2},
		map[string]any{"b": nil, "c": 3},
	)
	assert.Equal(t, map[string]any{"a": 1, "c": 3}, got)
}

func TestConfigurationMerger_MergeCategories(t *testing.T) {
	m := NewConfigurationMerger()
	base := &entities.CategoriesDirective{
		Priority:   "info",
		Categories: []entities.CategoryDirective{{Name: "sql", Priority: "warn"}},
	}
	overlay := &entities.CategoriesDirective{
		Categories: []entities.CategoryDirective{{Name: "sql", Priority: "debug"}, {Name: "pool", Priority: "error"}},
	}

	got := m.MergeCategories(base, overlay)
	require.NotNil(t, got)
	assert.Equal(t, "info", got.Priority)
	assert.Equal(t, []entities.CategoryDirective{
		{Name: "sql", Priority: "debug"},
		{Name: "pool", Priority: "error"},
	}, got.Categories)
	assert.Equal(t, "warn", base.Categories[0].Priority)
	assert.Nil(t, m.MergeCategories(nil, nil))
}

// Package services contains domain services for the composition model.
// These are stateless services that encapsulate business logic.
package services

import "github.com/reglet-dev/composer/internal/domain/entities"

// ConfigurationMerger cascades component configuration.
//
// Merge Semantics:
//   - Configuration: deep merge of nested maps, overlay wins on conflict
//   - Parameters: overlay wins, a nil overlay value removes the key
//   - Categories: overlay priority wins when set, categories merge by name
type ConfigurationMerger struct{}

// NewConfigurationMerger creates a new configuration merger service.
func NewConfigurationMerger() *ConfigurationMerger {
	return &ConfigurationMerger{}
}

// MergeConfiguration deep merges overlay onto base.
// Returns a NEW map (does not mutate inputs).
func (m *ConfigurationMerger) MergeConfiguration(base, overlay map[string]any) map[string]any {
	if base == nil && overlay == nil {
		return nil
	}
	result := copyMap(base)
	for k, v := range overlay {
		overlayMap, overlayIsMap := v.(map[string]any)
		baseMap, baseIsMap := result[k].(map[string]any)
		if overlayIsMap && baseIsMap {
			result[k] = m.MergeConfiguration(baseMap, overlayMap)
			continue
		}
		result[k] = copyValue(v)
	}
	return result
}

// MergeParameters applies overlay onto base with key removal on nil.
func (m *ConfigurationMerger) MergeParameters(base, overlay map[string]any) map[string]any {
	result := copyMap(base)
	for k, v := range overlay {
		if v == nil {
			delete(result, k)
			continue
		}
		result[k] = copyValue(v)
	}
	return result
}

// MergeCategories overlays logging categories.
func (m *ConfigurationMerger) MergeCategories(
	base, overlay *entities.CategoriesDirective,
) *entities.CategoriesDirective {
	if base == nil && overlay == nil {
		return nil
	}
	merged := &entities.CategoriesDirective{}
	if base != nil {
		merged.Priority = base.Priority
		merged.Categories = append(merged.Categories, base.Categories...)
	}
	if overlay == nil {
		return merged
	}
	if overlay.Priority != "" {
		merged.Priority = overlay.Priority
	}

	index := make(map[string]int, len(merged.Categories))
	for i, c := range merged.Categories {
		index[c.Name] = i
	}
	for _, c := range overlay.Categories {
		if i, ok := index[c.Name]; ok {
			merged.Categories[i] = c
			continue
		}
		index[c.Name] = len(merged.Categories)
		merged.Categories = append(merged.Categories, c)
	}
	return merged
}

func copyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = copyValue(v)
	}
	return dst
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

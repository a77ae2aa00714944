package capabilities

import "sync"

// Extractor derives the capabilities a component needs from its
// configuration, e.g. the directory a file store is configured with.
type Extractor interface {
	Extract(config map[string]any) []Capability
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(config map[string]any) []Capability

func (f ExtractorFunc) Extract(config map[string]any) []Capability { return f(config) }

// Registry holds capability extractors keyed by implementation classname.
type Registry struct {
	extractors map[string]Extractor
	mu         sync.RWMutex
}

// NewRegistry creates a new, empty capability registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]Extractor),
	}
}

// Register adds or replaces the extractor for classname.
func (r *Registry) Register(classname string, extractor Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[classname] = extractor
}

// Get retrieves the extractor for classname.
func (r *Registry) Get(classname string) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	extractor, ok := r.extractors[classname]
	return extractor, ok
}

// Required returns the static capabilities plus those extracted from config
// for classname, without duplicates.
func (r *Registry) Required(classname string, static []Capability, config map[string]any) []Capability {
	out := NewGrant(static...)
	if extractor, ok := r.Get(classname); ok {
		for _, c := range extractor.Extract(config) {
			out.Add(c)
		}
	}
	return []Capability(out)
}

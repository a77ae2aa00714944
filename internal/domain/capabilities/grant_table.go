package capabilities

import (
	"strings"
	"sync"
)

// SourceGrant attaches a grant to a code source. Source is a model path
// pattern: an exact path ("/app/db"), the direct children of a container
// ("/app/*"), a whole subtree ("/app/**") or everything ("/**").
type SourceGrant struct {
	Source string
	Grant  Grant
}

// GrantTable maps code sources to the capabilities they hold. It is
// consulted by the runtime before a component is commissioned; assembly
// never looks at it.
type GrantTable struct {
	policy *Policy

	mu      sync.RWMutex
	entries []SourceGrant
}

// NewGrantTable creates a table seeded with entries.
func NewGrantTable(entries ...SourceGrant) *GrantTable {
	t := &GrantTable{policy: NewPolicy()}
	for _, e := range entries {
		t.Add(e.Source, e.Grant...)
	}
	return t
}

// Add grants caps to source.
func (t *GrantTable) Add(source string, caps ...Capability) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].Source == source {
			t.entries[i].Grant.Merge(caps)
			return
		}
	}
	t.entries = append(t.entries, SourceGrant{Source: source, Grant: NewGrant(caps...)})
}

// Permissions returns the union of grants of every source matching path.
func (t *GrantTable) Permissions(path string) Grant {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := NewGrant()
	for _, e := range t.entries {
		if matchSource(path, e.Source) {
			out.Merge(e.Grant)
		}
	}
	return out
}

// Missing returns the capabilities in required that path does not hold.
func (t *GrantTable) Missing(path string, required []Capability) []Capability {
	granted := t.Permissions(path)
	var missing []Capability
	for _, r := range required {
		if !t.policy.IsGranted(r, granted) {
			missing = append(missing, r)
		}
	}
	return missing
}

func matchSource(path, source string) bool {
	switch {
	case source == "/**" || source == "*":
		return true
	case strings.HasSuffix(source, "/**"):
		prefix := strings.TrimSuffix(source, "**")
		return strings.HasPrefix(path, prefix)
	case strings.HasSuffix(source, "/*"):
		prefix := strings.TrimSuffix(source, "*")
		rest, ok := strings.CutPrefix(path, prefix)
		return ok && rest != "" && !strings.Contains(rest, "/")
	default:
		return path == source
	}
}

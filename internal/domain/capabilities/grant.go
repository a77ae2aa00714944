package capabilities

import "slices"

// Grant is a set of capabilities held by a code source.
type Grant []Capability

// NewGrant creates a grant holding caps without duplicates.
func NewGrant(caps ...Capability) Grant {
	g := make(Grant, 0, len(caps))
	g.Merge(caps)
	return g
}

// Add adds c unless the grant already holds it.
func (g *Grant) Add(c Capability) {
	if !g.Contains(c) {
		*g = append(*g, c)
	}
}

// Merge adds every capability of other.
func (g *Grant) Merge(other []Capability) {
	for _, c := range other {
		g.Add(c)
	}
}

// Contains reports whether the grant holds exactly c.
func (g Grant) Contains(c Capability) bool {
	return slices.Contains(g, c)
}

// Broad returns the capabilities of g whose patterns are broad.
func (g Grant) Broad() Grant {
	var out Grant
	for _, c := range g {
		if c.IsBroad() {
			out = append(out, c)
		}
	}
	return out
}

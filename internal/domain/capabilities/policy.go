package capabilities

import (
	"path"
	"strings"
)

// Policy decides whether a requested capability is covered by a grant.
type Policy struct{}

// NewPolicy creates a new domain policy.
func NewPolicy() *Policy {
	return &Policy{}
}

// IsGranted checks if request is covered by any of the granted capabilities.
func (p *Policy) IsGranted(request Capability, granted []Capability) bool {
	for _, grant := range granted {
		if grant.Kind == request.Kind && matchPattern(request.Pattern, grant.Pattern) {
			return true
		}
	}
	return false
}

// matchPattern supports:
//   - "*" and "**" matching anything
//   - a trailing "/**" matching a whole subtree
//   - a trailing "*" matching any suffix
//   - a comma list in the last ":" segment, e.g. "outbound:80,443"
//   - single-segment globs via path.Match
func matchPattern(request, pattern string) bool {
	if pattern == "*" || pattern == "**" {
		return true
	}
	if strings.Contains(request, "..") {
		return false
	}
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return request == prefix || strings.HasPrefix(request, prefix+"/")
	}
	if strings.HasSuffix(pattern, "*") && !strings.ContainsAny(strings.TrimSuffix(pattern, "*"), "*?[") {
		return strings.HasPrefix(request, strings.TrimSuffix(pattern, "*"))
	}
	if i := strings.LastIndex(pattern, ":"); i >= 0 && strings.Contains(pattern[i:], ",") {
		j := strings.LastIndex(request, ":")
		if j < 0 || request[:j] != pattern[:i] {
			return false
		}
		for _, item := range strings.Split(pattern[i+1:], ",") {
			if strings.TrimSpace(item) == request[j+1:] {
				return true
			}
		}
		return false
	}
	if ok, err := path.Match(pattern, request); err == nil && ok {
		return true
	}
	return request == pattern
}

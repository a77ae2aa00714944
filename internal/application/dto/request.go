// Package dto contains data transfer objects for application layer use cases.
package dto

// AssembleRequest encapsulates all inputs needed to assemble a containment profile.
type AssembleRequest struct {
	Metadata    RequestMetadata
	ProfilePath string
	// TargetsPath optionally names a file of target overrides applied to
	// the tree before assembly.
	TargetsPath string
	// TypePaths are the directories scanned for type descriptors.
	TypePaths []string
	Options   AssembleOptions
}

// AssembleOptions controls what happens after assembly.
type AssembleOptions struct {
	// Commission brings every component up in dependency order once the
	// whole tree is assembled.
	Commission bool

	// Hold keeps commissioned components running until the request context
	// is cancelled, then decommissions them. Without Hold the tree is
	// decommissioned as soon as commissioning succeeds.
	Hold bool

	// TrustAll grants every capability requested by components.
	TrustAll bool

	// Filter is an expression selecting the models listed in the report.
	// Failures are always reported.
	Filter string
}

// CatalogRequest encapsulates inputs for listing the type catalog.
type CatalogRequest struct {
	TypePaths []string
}

// RequestMetadata contains metadata for request tracking.
type RequestMetadata struct {
	// RequestID uniquely identifies this request
	RequestID string
}

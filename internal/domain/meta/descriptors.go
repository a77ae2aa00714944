package meta

// Attributes is a set of free-form named features attached to a descriptor.
type Attributes map[string]string

// Get returns the value of a named attribute and whether it is present.
func (a Attributes) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a[key]
	return v, ok
}

// ServiceDescriptor describes a service a component type provides.
type ServiceDescriptor struct {
	Reference  ReferenceDescriptor
	Attributes Attributes
}

// DependencyDescriptor describes a service a component type requires.
type DependencyDescriptor struct {
	Key        string
	Reference  ReferenceDescriptor
	Optional   bool
	Attributes Attributes
}

// IsRequired reports whether assembly must bind a provider for this dependency.
func (d DependencyDescriptor) IsRequired() bool {
	return !d.Optional
}

// StageDescriptor describes a lifecycle stage a component type requires a handler for.
type StageDescriptor struct {
	Key        string
	Attributes Attributes
}

// ExtensionDescriptor describes a lifecycle stage a component type can handle.
type ExtensionDescriptor struct {
	Key        string
	Attributes Attributes
}

// EntryDescriptor describes a context entry a component type expects.
type EntryDescriptor struct {
	Key       string
	Classname string
	Alias     string
	Optional  bool
	Volatile  bool
}

// IsRequired reports whether the entry must be resolvable.
func (e EntryDescriptor) IsRequired() bool {
	return !e.Optional
}

// ContextDescriptor describes the context a component type expects at creation.
// Strategy names a lifecycle contextualization extension. An empty strategy
// means plain key/value lookup.
type ContextDescriptor struct {
	Strategy   string
	Entries    []EntryDescriptor
	Attributes Attributes
}

// Entry returns the entry descriptor with the given key.
func (c ContextDescriptor) Entry(key string) (EntryDescriptor, bool) {
	for _, e := range c.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return EntryDescriptor{}, false
}

// HasStrategy reports whether a non-default contextualization strategy is declared.
func (c ContextDescriptor) HasStrategy() bool {
	return c.Strategy != ""
}

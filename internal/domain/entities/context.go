package entities

import "fmt"

// EntrySource describes where the value of a context entry comes from.
// It is one of Constructed, Imported or Overridden.
type EntrySource interface {
	isEntrySource()
	String() string
}

// Constructed builds a value from a registered constructor. Value may hold
// "${key}" references to other context entries. Args are evaluated first.
type Constructed struct {
	Classname string
	Value     string
	Args      []EntrySource
}

// Imported takes the value of another key from the system context.
type Imported struct {
	Key string
}

// Overridden supplies a literal value.
type Overridden struct {
	Value any
}

func (Constructed) isEntrySource() {}
func (Imported) isEntrySource()    {}
func (Overridden) isEntrySource()  {}

func (c Constructed) String() string { return fmt.Sprintf("constructed(%s)", c.Classname) }
func (i Imported) String() string    { return fmt.Sprintf("imported(%s)", i.Key) }
func (o Overridden) String() string  { return fmt.Sprintf("overridden(%v)", o.Value) }

// EntryDirective supplies the value of one context entry.
type EntryDirective struct {
	Key    string
	Source EntrySource
}

// ContextDirective supplies context entries and optionally overrides the
// contextualization strategy of a component.
type ContextDirective struct {
	Strategy string
	Entries  []EntryDirective
}

// Entry returns the directive for key, or nil.
func (c *ContextDirective) Entry(key string) *EntryDirective {
	if c == nil {
		return nil
	}
	for i := range c.Entries {
		if c.Entries[i].Key == key {
			return &c.Entries[i]
		}
	}
	return nil
}

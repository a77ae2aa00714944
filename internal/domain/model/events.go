package model

import "fmt"

// CompositionEvent describes a change to the children of a containment model.
type CompositionEvent struct {
	Source *ContainmentModel
	Child  Model
}

// CompositionListener observes models being added to or removed from a
// containment model. Failures are logged and never abort the change.
type CompositionListener interface {
	ModelAdded(event CompositionEvent) error
	ModelRemoved(event CompositionEvent) error
}

// CompositionSeeder is a listener that tracks the whole tree and therefore
// needs the models composed before it was attached.
type CompositionSeeder interface {
	Seed(root *ContainmentModel)
}

// ListenerFuncs adapts plain functions to CompositionListener. Register it
// by pointer so it can be removed again.
type ListenerFuncs struct {
	Added   func(CompositionEvent) error
	Removed func(CompositionEvent) error
}

func (l *ListenerFuncs) ModelAdded(e CompositionEvent) error {
	if l.Added == nil {
		return nil
	}
	return l.Added(e)
}

func (l *ListenerFuncs) ModelRemoved(e CompositionEvent) error {
	if l.Removed == nil {
		return nil
	}
	return l.Removed(e)
}

// notify invokes fn on every listener, isolating failures.
func (c *ContainmentModel) notify(listeners []CompositionListener, event string, fn func(CompositionListener) error) {
	for _, l := range listeners {
		if err := safeNotify(l, fn); err != nil {
			c.logger.Warn("composition listener failed",
				"event", event,
				"container", c.Path(),
				"error", err)
		}
	}
}

func safeNotify(l CompositionListener, fn func(CompositionListener) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return fn(l)
}

package core

import (
	"reflect"

	"github.com/loomui/loom/pkg/render"
)

// dependOnAllAspects is the sentinel stored in a dependent's aspect set
// when DependOnInherited was called with a nil aspect, meaning "rebuild on
// any change" rather than on one specific aspect.
var dependOnAllAspects = &struct{}{}

// InheritedElement hosts an InheritedWidget and makes it available to every
// descendant in O(1), by copying a reference to its own provides map into
// each child's scope on Mount rather than having descendants walk their
// ancestors at lookup time. It is the only element kind that ever writes a
// new scope map; every other element kind just forwards its parent's.
//
// # Aspect-based tracking
//
// A dependent that registers with a specific non-nil aspect is stored
// under that aspect in InheritedElement.dependents. On update, if the
// widget implements AspectAwareInheritedWidget, UpdateShouldNotifyDependent
// decides per dependent whether its registered aspects actually changed,
// instead of rebuilding every dependent on every update.
//
// Aspect sets only grow during an element's lifetime: if a later build no
// longer reads an aspect it once did, the stale aspect stays registered.
// This is safe (it can only cause an extra rebuild, never a missed one).
type InheritedElement struct {
	elementBase
	child      Element
	dependents map[Element]map[any]struct{}
}

// NewInheritedElement creates an InheritedElement. The widget and build
// owner are set later by the framework during inflation.
func NewInheritedElement() *InheritedElement {
	return &InheritedElement{
		dependents: make(map[Element]map[any]struct{}),
	}
}

func (e *InheritedElement) Mount(parent Element, slot any) {
	e.MountWithSelf(parent, slot, e)
}

// MountWithSelf lets a wrapper element (e.g. one composing an
// InheritedElement alongside its own bookkeeping) present itself as the
// parent reference for children, instead of this InheritedElement.
func (e *InheritedElement) MountWithSelf(parent Element, slot any, self Element) {
	e.mountBase(self, parent, slot)
	e.buildScope()
	e.renderParent = e.findRenderParent()
	e.mounted = true
	e.dirty = true
	e.rebuildWithSelf(self)
}

// buildScope copies the inherited scope map and adds (or replaces) this
// element's own entry, so descendants see this InheritedElement as the
// nearest provider of its widget type. The copy happens here, once, rather
// than per descendant lookup — the cost of inheritance is paid by whoever
// provides a value, not by however many widgets consume it.
func (e *InheritedElement) buildScope() {
	widgetType := reflect.TypeOf(e.widget)
	next := make(map[reflect.Type]*InheritedElement, len(e.scope)+1)
	for k, v := range e.scope {
		next[k] = v
	}
	next[widgetType] = e
	e.scope = next
}

func (e *InheritedElement) Update(newWidget Widget) {
	oldWidget := e.widget.(InheritedWidget)
	e.widget = newWidget
	newInherited := newWidget.(InheritedWidget)

	// UpdateShouldNotify is a coarse gate: if it says no, nobody is
	// notified regardless of aspect tracking.
	if !newInherited.UpdateShouldNotify(oldWidget) {
		e.MarkNeedsBuild()
		return
	}

	aspectAware, hasAspects := newInherited.(AspectAwareInheritedWidget)
	for dependent, aspects := range e.dependents {
		if !hasAspects {
			notifyDependent(dependent)
			continue
		}
		if _, dependsOnAll := aspects[dependOnAllAspects]; dependsOnAll {
			notifyDependent(dependent)
			continue
		}
		if len(aspects) == 0 || aspectAware.UpdateShouldNotifyDependent(oldWidget, aspects) {
			notifyDependent(dependent)
		}
	}

	e.MarkNeedsBuild()
}

func (e *InheritedElement) Unmount() {
	e.mounted = false
	e.cancelTasks()
	e.removeInheritedDependencies()
	if e.child != nil {
		e.child.Unmount()
		e.child = nil
	}
	e.dependents = nil
	e.removeFromTree()
}

func (e *InheritedElement) RebuildIfNeeded() {
	e.RebuildIfNeededWithSelf(e)
}

// RebuildIfNeededWithSelf lets a wrapper element specify itself as parent.
func (e *InheritedElement) RebuildIfNeededWithSelf(self Element) {
	e.rebuildWithSelf(self)
}

func (e *InheritedElement) rebuildWithSelf(self Element) {
	if !e.dirty || !e.mounted {
		return
	}
	e.dirty = false
	inherited := e.widget.(InheritedWidget)
	childWidget := inherited.ChildWidget()
	e.child = updateChild(e.child, childWidget, self, e.buildOwner, nil)
}

func (e *InheritedElement) VisitChildren(visitor func(Element) bool) {
	if e.child != nil {
		visitor(e.child)
	}
}

func (e *InheritedElement) RenderObject() render.Object {
	if e.child == nil {
		return nil
	}
	if child, ok := e.child.(interface{ RenderObject() render.Object }); ok {
		return child.RenderObject()
	}
	return nil
}

// AddDependent registers dependent as depending on this inherited widget.
// A non-nil aspect is added to the dependent's aspect set for fine-grained
// filtering; a nil aspect records the "depends on everything" sentinel.
func (e *InheritedElement) AddDependent(dependent Element, aspect any) {
	if dependent == nil {
		return
	}
	if e.dependents == nil {
		e.dependents = make(map[Element]map[any]struct{})
	}

	aspects := e.dependents[dependent]
	if aspects == nil {
		aspects = make(map[any]struct{})
		e.dependents[dependent] = aspects
	}

	if aspect != nil {
		aspects[aspect] = struct{}{}
	} else {
		aspects[dependOnAllAspects] = struct{}{}
	}
}

// RemoveDependent unregisters dependent.
func (e *InheritedElement) RemoveDependent(dependent Element) {
	delete(e.dependents, dependent)
}

// notifyDependent triggers DidChangeDependencies on a StatefulElement's
// State before marking it dirty; other element kinds just get marked
// dirty, since only State has a dependency-change hook to run.
func notifyDependent(element Element) {
	if stateful, ok := element.(*StatefulElement); ok {
		if stateful.state != nil {
			stateful.state.DidChangeDependencies()
		}
		stateful.MarkNeedsBuild()
		return
	}
	element.MarkNeedsBuild()
}

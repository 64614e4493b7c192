// Package core implements the element tree reactor: the widget/element/state
// contract, keyed child reconciliation, the dirty-set build scheduler, and
// scope-copied inherited-widget dependency tracking (spec §2-§4).
package core

import (
	"reflect"

	"github.com/loomui/loom/pkg/render"
)

// Widget is an immutable description of part of the UI. Widgets are
// lightweight and can be created freely every build; the element tree is
// what carries persistent identity across rebuilds (spec §2).
type Widget interface {
	// Key returns the reconciliation key used to match this widget against
	// an existing element across rebuilds, or nil for positional matching.
	Key() any
	// CreateElement instantiates the element that will host this widget.
	CreateElement() Element
}

// Element is the persistent instantiation of a Widget at one tree position.
// An element survives across rebuilds as long as its widget's type and key
// keep matching (spec §2, §4.2).
type Element interface {
	Widget() Widget
	Depth() int
	Slot() any
	UpdateSlot(newSlot any)

	Mount(parent Element, slot any)
	Update(newWidget Widget)
	Unmount()
	RebuildIfNeeded()
	MarkNeedsBuild()

	VisitChildren(visitor func(Element) bool)
	FindAncestor(predicate func(Element) bool) Element

	DependOnInherited(inheritedType reflect.Type, aspect any) any
	DependOnInheritedWithAspects(inheritedType reflect.Type, aspects ...any) any

	// RenderObject returns the nearest render object this element or one of
	// its descendants owns, or nil if none has mounted yet.
	RenderObject() render.Object
}

// BuildContext is the view an Element presents to build functions: enough
// to look up ancestors and inherited widgets, but none of the mutation
// methods a framework-internal Element exposes.
type BuildContext interface {
	DependOnInherited(inheritedType reflect.Type, aspect any) any
	DependOnInheritedWithAspects(inheritedType reflect.Type, aspects ...any) any
	FindAncestor(predicate func(Element) bool) Element
}

// StatelessWidget builds its subtree directly from its own fields, with no
// persistent state between rebuilds.
type StatelessWidget interface {
	Widget
	Build(ctx BuildContext) Widget
}

// StatefulWidget owns a State value that outlives individual rebuilds.
type StatefulWidget interface {
	Widget
	CreateState() State
}

// State is the mutable, long-lived companion to a StatefulWidget. Embed
// StateBase to get no-op defaults for every method except Build.
type State interface {
	InitState()
	Build(ctx BuildContext) Widget
	DidChangeDependencies()
	DidUpdateWidget(oldWidget StatefulWidget)
	Dispose()
}

// InheritedWidget makes a value available to descendants in O(1) via the
// scope-copied provides map (spec §4.4), instead of an ancestor walk.
type InheritedWidget interface {
	Widget
	ChildWidget() Widget
	// UpdateShouldNotify reports whether replacing oldWidget with this one
	// should notify dependents at all. A coarse-grained gate in front of
	// the finer aspect-based filtering AspectAwareInheritedWidget adds.
	UpdateShouldNotify(oldWidget InheritedWidget) bool
}

// AspectAwareInheritedWidget lets an InheritedWidget filter notifications
// per dependent based on which aspects of its value that dependent actually
// read, instead of rebuilding every dependent on every change (spec §4.4).
type AspectAwareInheritedWidget interface {
	InheritedWidget
	// UpdateShouldNotifyDependent reports whether a specific dependent,
	// which previously registered the given aspect set, should rebuild.
	UpdateShouldNotifyDependent(oldWidget InheritedWidget, aspects map[any]struct{}) bool
}

// Listenable is anything hooks can subscribe to for a rebuild trigger.
type Listenable interface {
	AddListener(fn func()) (unsubscribe func())
}

// Disposable is released by UseController when a State is disposed.
type Disposable interface {
	Dispose()
}
